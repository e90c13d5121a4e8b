package password

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Blacklist es el diccionario de passwords prohibidas que registro y
// reset consultan después de la policy. Un puntero nil se comporta como
// una lista vacía, así los servicios no necesitan chequear la config.
type Blacklist struct {
	mu   sync.RWMutex
	data map[string]struct{}
}

// LoadBlacklist lee el archivo indicado (una password por línea, `#`
// comenta, el case no importa). Path vacío devuelve una lista vacía:
// la blacklist es opcional en la config.
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := &Blacklist{data: map[string]struct{}{}}
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s != "" && !strings.HasPrefix(s, "#") {
			bl.data[s] = struct{}{}
		}
	}
	return bl, sc.Err()
}

// Contains reporta si la password está en la lista. La comparación es
// case-insensitive, igual que la carga.
func (b *Blacklist) Contains(pwd string) bool {
	if b == nil {
		return false
	}
	p := strings.ToLower(strings.TrimSpace(pwd))
	b.mu.RLock()
	_, ok := b.data[p]
	b.mu.RUnlock()
	return ok
}
