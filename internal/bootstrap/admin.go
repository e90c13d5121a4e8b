// Package bootstrap crea el primer usuario admin en una instalación
// nueva, en forma interactiva o desde variables preseteadas.
package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	"github.com/dropDatabas3/idmanager/internal/security/password"
	"github.com/dropDatabas3/idmanager/internal/store"
)

// AdminConfig configura el bootstrap del primer admin.
type AdminConfig struct {
	Store         store.Store
	AdminRole     string // nombre del rol admin, default "admin"
	SkipPrompt    bool   // modo no interactivo (tests, CI)
	AdminEmail    string // email prellenado (opcional)
	AdminPassword string // password prellenada (opcional)
}

// CheckAndCreateAdmin verifica si existe al menos un usuario con el rol
// admin. Si no existe, crea el rol (si hace falta) y pide credenciales
// para el primer admin.
func CheckAndCreateAdmin(ctx context.Context, cfg AdminConfig) error {
	if cfg.AdminRole == "" {
		cfg.AdminRole = "admin"
	}

	has, err := hasExistingAdmin(ctx, cfg.Store, cfg.AdminRole)
	if err != nil {
		return fmt.Errorf("failed to check for existing admins: %w", err)
	}
	if has {
		return nil
	}

	fmt.Println("\nNo admin users found in the system.")
	fmt.Println("Let's create the first admin user to get started.")

	email, plain := cfg.AdminEmail, cfg.AdminPassword
	if !cfg.SkipPrompt {
		email, plain, err = promptAdminCredentials()
		if err != nil {
			return fmt.Errorf("failed to prompt admin credentials: %w", err)
		}
	}
	if email == "" || plain == "" {
		return fmt.Errorf("admin email and password are required")
	}

	if err := createAdminUser(ctx, cfg.Store, cfg.AdminRole, email, plain); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	fmt.Println("\nAdmin user created successfully!")
	fmt.Printf("   Email: %s\n", email)
	fmt.Printf("   You can now login at: /login\n\n")
	return nil
}

func hasExistingAdmin(ctx context.Context, st store.Store, adminRole string) (bool, error) {
	role, err := st.Roles().GetByName(ctx, adminRole)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	n, err := st.Roles().AssignmentCount(ctx, role.ID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func createAdminUser(ctx context.Context, st store.Store, adminRole, email, plain string) error {
	// El rol admin puede no existir todavía en una instalación limpia.
	if _, err := st.Roles().GetByName(ctx, adminRole); err != nil {
		if !repository.IsNotFound(err) {
			return err
		}
		if _, err := st.Roles().Create(ctx, adminRole); err != nil && !repository.IsConflict(err) {
			return fmt.Errorf("failed to create admin role: %w", err)
		}
	}

	hash, err := password.Hash(password.Default, plain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := st.Users().Create(ctx, repository.CreateUserInput{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	})
	if err != nil {
		if repository.IsConflict(err) {
			// ya hay cuenta con ese email: sólo le damos el rol
			existing, gerr := st.Users().GetByEmail(ctx, email)
			if gerr != nil {
				return gerr
			}
			user = existing
		} else {
			return err
		}
	}

	// El primer admin no pasa por el mail de confirmación.
	if err := st.Users().SetEmailVerified(ctx, user.ID, true); err != nil {
		return err
	}
	if err := st.Roles().AddUserRoles(ctx, user.ID, []string{adminRole}); err != nil {
		return err
	}

	fmt.Printf("\nAdmin created with ID: %s\n", user.ID)
	return nil
}

// promptAdminCredentials pide email y password por consola, con el
// password oculto.
func promptAdminCredentials() (email, pass string, err error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Admin Email: ")
	email, err = reader.ReadString('\n')
	if err != nil {
		return "", "", err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", fmt.Errorf("email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return "", "", fmt.Errorf("invalid email format")
	}

	fmt.Print("Admin Password (min 10 chars): ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", "", err
	}
	pass = string(passwordBytes)
	fmt.Println()

	if len(pass) < 10 {
		return "", "", fmt.Errorf("password must be at least 10 characters")
	}

	fmt.Print("Confirm Password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", "", err
	}
	fmt.Println()

	if pass != string(confirmBytes) {
		return "", "", fmt.Errorf("passwords do not match")
	}
	return email, pass, nil
}
