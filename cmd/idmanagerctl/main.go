// idmanagerctl es el CLI de administración: pega contra la API admin
// del servicio usando un access token con rol admin.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("IDMANAGER_URL", "http://localhost:8080")
		token   = envOr("IDMANAGER_TOKEN", "")
		out     = envOr("IDMANAGER_OUT", "text")
	)

	c := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:   "idmanagerctl",
		Short: "CLI admin para el identity manager",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.BaseURL = baseURL
			c.Token = token
			c.OutFormat = out
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env IDMANAGER_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "access token con rol admin (env IDMANAGER_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "formato de salida: text | json")

	root.AddCommand(loginCmd(c), roleCmd(c), userCmd(c))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loginCmd(c *client) *cobra.Command {
	var email, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login con password, imprime el access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]any{"email": email, "password": pass})
			status, b, err := c.do(http.MethodPost, "/login", body)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				c.print(status, b)
				return fmt.Errorf("login failed (status %d)", status)
			}
			var resp struct {
				Status         string `json:"status"`
				AccessToken    string `json:"access_token"`
				TwoFactorToken string `json:"two_factor_token"`
			}
			if err := json.Unmarshal(b, &resp); err != nil {
				return err
			}
			if resp.Status == "requires_two_factor" {
				return fmt.Errorf("account has two-factor enabled; complete the challenge via the API (token %s)", resp.TwoFactorToken)
			}
			fmt.Println(resp.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&pass, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func roleCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{Use: "role", Short: "Administración de roles"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Listar roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, b, err := c.do(http.MethodGet, "/role", nil)
			if err != nil {
				return err
			}
			c.print(status, b)
			return nil
		},
	})

	var upsertID string
	upsert := &cobra.Command{
		Use:   "upsert <name>",
		Short: "Crear un rol, o renombrarlo si se pasa --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"id": upsertID, "name": args[0]})
			status, b, err := c.do(http.MethodPost, "/role/upsert", body)
			if err != nil {
				return err
			}
			c.print(status, b)
			return nil
		},
	}
	upsert.Flags().StringVar(&upsertID, "id", "", "ID del rol a renombrar")
	cmd.AddCommand(upsert)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Borrar un rol sin asignaciones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"id": args[0]})
			status, b, err := c.do(http.MethodPost, "/role/delete", body)
			if err != nil {
				return err
			}
			c.print(status, b)
			return nil
		},
	})

	return cmd
}

func userCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Administración de usuarios"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Listar usuarios con sus roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, b, err := c.do(http.MethodGet, "/user", nil)
			if err != nil {
				return err
			}
			c.print(status, b)
			return nil
		},
	})

	var roles []string
	manage := &cobra.Command{
		Use:   "set-roles <user-id>",
		Short: "Reemplazar los roles del usuario por la lista dada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]any{"user_id": args[0], "roles": roles})
			status, b, err := c.do(http.MethodPost, "/user/manage-role", body)
			if err != nil {
				return err
			}
			c.print(status, b)
			return nil
		},
	}
	manage.Flags().StringSliceVar(&roles, "role", nil, "rol a asignar (repetible; sin --role deja al usuario sin roles)")
	cmd.AddCommand(manage)

	cmd.AddCommand(&cobra.Command{
		Use:   "lock-unlock <user-id>",
		Short: "Alternar el bloqueo del usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"user_id": args[0]})
			status, b, err := c.do(http.MethodPost, "/user/lock-unlock-user", body)
			if err != nil {
				return err
			}
			c.print(status, b)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <user-id>",
		Short: "Eliminar un usuario en forma definitiva",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"user_id": args[0]})
			status, b, err := c.do(http.MethodPost, "/user/delete", body)
			if err != nil {
				return err
			}
			c.print(status, b)
			return nil
		},
	})

	return cmd
}
