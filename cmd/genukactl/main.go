package main

import (
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
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) get(path string) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	resp, err := c.HTTP.Get(url)
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

// newRoot arma el árbol de comandos. El client se termina de poblar en
// PersistentPreRun, después de que cobra parseó los flags; leerlo antes
// dejaría los flags sin efecto.
func newRoot() (*cobra.Command, *client) {
	var (
		baseURL = envOr("BRIDGE_URL", "http://localhost:8080")
		out     = envOr("BRIDGE_OUT", "text")
		timeout = 30 * time.Second
	)

	cl := &client{HTTP: &http.Client{Timeout: timeout}}

	root := &cobra.Command{
		Use:   "genukactl",
		Short: "CLI de inspección para el bridge de Genuka",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL = baseURL
			cl.OutFormat = out
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del bridge (env BRIDGE_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Chequea liveness y readiness del bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range []string{"/healthz", "/readyz"} {
				status, body, err := cl.get(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if status/100 != 2 {
					return fmt.Errorf("%s fallo: status=%d body=%s", path, status, string(body))
				}
				fmt.Printf("%s ok\n", path)
			}
			return nil
		},
	}

	companiesCmd := &cobra.Command{
		Use:   "companies",
		Short: "Lecturas del directorio de companies",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista las companies registradas",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.get("/api/companies")
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("list fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <company-id>",
		Short: "Muestra una company por id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.get("/api/companies/" + args[0])
			if err != nil {
				return err
			}
			if status == http.StatusNotFound {
				return fmt.Errorf("company %q no encontrada", args[0])
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	companiesCmd.AddCommand(listCmd, getCmd)
	root.AddCommand(healthCmd, companiesCmd)

	return root, cl
}

func main() {
	root, _ := newRoot()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
