package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tubedesk/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "tubedesk.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: runConfigShow,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	configPath := c.String("config")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("Configuration is valid")
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("server.port          = %d\n", cfg.Server.Port)
	fmt.Printf("database.url         = %s\n", maskSecret(cfg.Database.URL))
	fmt.Printf("google.client_id     = %s\n", cfg.Google.ClientID)
	fmt.Printf("google.client_secret = %s\n", maskSecret(cfg.Google.ClientSecret))
	fmt.Printf("google.redirect_url  = %s\n", cfg.Google.RedirectURL)
	fmt.Printf("groq.api_key         = %s\n", maskSecret(cfg.Groq.APIKey))
	fmt.Printf("groq.model           = %s\n", cfg.Groq.Model)
	fmt.Printf("auth.jwt_secret      = %s\n", maskSecret(cfg.Auth.JWTSecret))
	fmt.Printf("auth.session_ttl     = %s\n", cfg.Auth.SessionTTL)
	fmt.Printf("frontend.url         = %s\n", cfg.Frontend.URL)
	fmt.Printf("jobs.enabled         = %t\n", cfg.Jobs.Enabled)
	fmt.Printf("log.level            = %s\n", cfg.Log.Level)
	return nil
}

// maskSecret shows only the first and last two characters of a secret value.
func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
