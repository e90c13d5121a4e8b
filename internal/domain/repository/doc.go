// Package repository define las entidades del dominio y los contratos de
// persistencia. Los adapters concretos viven en internal/store (pg, memory);
// los services dependen únicamente de estas interfaces.
package repository
