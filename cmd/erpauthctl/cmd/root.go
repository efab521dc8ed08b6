package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/flows"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.4.0"

var (
	serverURL      string
	configPath     string
	statePath      string
	envFile        string
	nonInteractive bool
	verbose        bool

	engine *erpauth.Engine
)

var rootCmd = &cobra.Command{
	Use:   "erpauthctl",
	Short: "ISP ERP sign-in and permission client",
	Long: `erpauthctl signs in to the ISP ERP backend with any of its protocols
(password and emailed code, passwordless code, magic link), registers new
staff accounts, and inspects the signed-in user's roles and permissions.

The session token is kept in ~/.erpauth/state.json unless --state is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnv(cmd); err != nil {
			return err
		}
		e, err := buildEngine()
		if err != nil {
			return err
		}
		engine = e
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		engine.Close()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(flows.Message(err))
		if verbose {
			pterm.Println(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serverURL, "server", "", "ERP backend base URL (env ERPAUTH_SERVER)")
	flags.StringVar(&configPath, "config", "", "YAML configuration file (env ERPAUTH_CONFIG)")
	flags.StringVar(&statePath, "state", "", "token state file (env ERPAUTH_STATE)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading ERPAUTH_* variables")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt; read secrets from ERPAUTH_* variables (env ERPAUTH_NON_INTERACTIVE=1)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log requests and show raw errors")

	rootCmd.Version = version
	rootCmd.AddCommand(loginCmd, passwordlessCmd, magicLinkCmd)
	rootCmd.AddCommand(registerCmd, resetPasswordCmd, setPasswordCmd)
	rootCmd.AddCommand(whoamiCmd, canCmd, tokenCmd, logoutCmd)
}

func loadEnv(cmd *cobra.Command) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	fromEnv := func(flag string, dst *string, key string) {
		if !cmd.Flags().Changed(flag) {
			if v := os.Getenv(key); v != "" {
				*dst = v
			}
		}
	}
	fromEnv("server", &serverURL, "ERPAUTH_SERVER")
	fromEnv("config", &configPath, "ERPAUTH_CONFIG")
	fromEnv("state", &statePath, "ERPAUTH_STATE")
	if os.Getenv("ERPAUTH_NON_INTERACTIVE") == "1" {
		nonInteractive = true
	}
	return nil
}

func buildEngine() (*erpauth.Engine, error) {
	cfg := erpauth.DefaultConfig()
	if configPath != "" {
		loaded, err := erpauth.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if serverURL != "" {
		cfg.HTTP.BaseURL = serverURL
	}
	if cfg.HTTP.BaseURL == "" {
		return nil, fmt.Errorf("%w: no backend URL, set --server or ERPAUTH_SERVER", erpauth.ErrValidation)
	}
	cfg.HTTP.UserAgent = "erpauthctl/" + version

	// Each invocation is a new process, so state must outlive it.
	if cfg.Storage.Backend == erpauth.StorageMemory {
		cfg.Storage.Backend = erpauth.StorageFile
	}
	if statePath != "" {
		cfg.Storage.Path = statePath
	}
	cfg.Login.RememberByDefault = true

	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		logger = l
		for _, w := range cfg.Lint() {
			pterm.Warning.Printf("%s: %s\n", w.Code, w.Message)
		}
	}

	return erpauth.New().WithConfig(cfg).WithLogger(logger).Build()
}

// prompt returns value when set, then ERPAUTH_<NAME>, then asks.
func prompt(label, value string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	key := "ERPAUTH_" + strings.ToUpper(strings.ReplaceAll(label, " ", "_"))
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	if nonInteractive {
		return "", fmt.Errorf("%w: %s is required (set %s)", erpauth.ErrValidation, label, key)
	}

	input := pterm.DefaultInteractiveTextInput
	if secret {
		return input.WithMask("*").Show(capitalize(label))
	}
	return input.Show(capitalize(label))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
