// chainctl is the ChainPlan admin CLI. It operates directly on the
// configured database: managing API keys and inspecting projects, scenarios
// and results.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/postgres"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/chainplan/chainplan/internal/sqlite"
	"github.com/chainplan/chainplan/internal/transport"
)

var rootCmd = &cobra.Command{
	Use:   "chainctl",
	Short: "ChainPlan admin CLI",
	Long: `chainctl manages a ChainPlan deployment directly against its database:
API keys, projects, scenarios and versioned results.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CHAINPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("db-driver", "sqlite", "database driver (sqlite|postgres)")
	rootCmd.PersistentFlags().String("db-path", "chainplan.db", "sqlite database path")
	rootCmd.PersistentFlags().String("db-dsn", "", "postgres connection string")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("db-driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("db-path", rootCmd.PersistentFlags().Lookup("db-path"))
	_ = viper.BindPFlag("db-dsn", rootCmd.PersistentFlags().Lookup("db-dsn"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(scenarioCmd())
	rootCmd.AddCommand(resultCmd())
}

type stores struct {
	projects  project.Repository
	scenarios scenario.Repository
	results   result.Repository
	apiKeys   repository.APIKeyRepository
}

func withStores(ctx context.Context, fn func(context.Context, *stores) error) error {
	if viper.GetString("db-driver") == "postgres" {
		db, err := postgres.Open(ctx, viper.GetString("db-dsn"))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.RunMigrations(ctx); err != nil {
			return err
		}
		return fn(ctx, &stores{
			projects:  postgres.NewProjectRepository(db),
			scenarios: postgres.NewScenarioRepository(db),
			results:   postgres.NewResultRepository(db),
			apiKeys:   postgres.NewAPIKeyRepository(db),
		})
	}

	db, err := sqlite.New(viper.GetString("db-path"))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return err
	}
	return fn(ctx, &stores{
		projects:  sqlite.NewProjectRepository(db),
		scenarios: sqlite.NewScenarioRepository(db),
		results:   sqlite.NewResultRepository(db),
		apiKeys:   sqlite.NewAPIKeyRepository(db),
	})
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	cmd.AddCommand(apikeyCreateCmd())
	cmd.AddCommand(apikeyListCmd())
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var userID, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				key := uuid.NewString()
				err := s.apiKeys.Insert(ctx, &repository.APIKey{
					KeyHash:     transport.HashKey(key),
					UserID:      userID,
					Description: description,
				})
				if err != nil {
					return err
				}
				// The raw key is shown once; only its hash is stored.
				if viper.GetBool("json") {
					return printJSON(map[string]string{"key": key, "user_id": userID})
				}
				fmt.Printf("API key for %s: %s\n", userID, key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owning user id")
	cmd.Flags().StringVar(&description, "description", "", "key description")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				keys, err := s.apiKeys.List(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := newTable("Hash", "User", "Description", "Created", "Last used")
				for _, k := range keys {
					lastUsed := "-"
					if k.LastUsed != nil {
						lastUsed = k.LastUsed.Format("2006-01-02 15:04")
					}
					hash := k.KeyHash
					if len(hash) > 12 {
						hash = hash[:12] + "…"
					}
					tw.AppendRow(table.Row{hash, k.UserID, k.Description, k.CreatedAt.Format("2006-01-02 15:04"), lastUsed})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Inspect projects"}

	var userID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a user's projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				items, err := s.projects.List(ctx, userID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Name", "Tool", "Size (MB)", "Updated")
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, string(p.Tool), p.SizeMB, p.UpdatedAt.Format("2006-01-02 15:04")})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	list.Flags().StringVar(&userID, "user", "", "owning user id")
	_ = list.MarkFlagRequired("user")
	cmd.AddCommand(list)
	return cmd
}

func scenarioCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "scenario", Short: "Inspect scenarios"}

	var userID, projectID, module string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a project's scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				items, err := s.scenarios.List(ctx, userID, projectID, scenario.ModuleType(module))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Name", "Module", "Status", "Updated")
				for _, sc := range items {
					tw.AppendRow(table.Row{sc.ID, sc.Name, string(sc.Module), string(sc.Status), sc.UpdatedAt.Format("2006-01-02 15:04")})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	list.Flags().StringVar(&userID, "user", "", "owning user id")
	list.Flags().StringVar(&projectID, "project", "", "project id")
	list.Flags().StringVar(&module, "module", "", "module type filter")
	_ = list.MarkFlagRequired("user")
	_ = list.MarkFlagRequired("project")
	cmd.AddCommand(list)
	return cmd
}

func resultCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "result", Short: "Inspect results"}

	var userID string
	var limit, offset int
	list := &cobra.Command{
		Use:   "list <scenario-id>",
		Short: "List a scenario's results, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(ctx context.Context, s *stores) error {
				items, err := s.results.List(ctx, userID, args[0], limit, offset)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Name", "#", "Size (bytes)", "Created")
				for _, r := range items {
					tw.AppendRow(table.Row{r.ID, r.Name, r.Number, r.SizeBytes, r.CreatedAt.Format("2006-01-02 15:04")})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	list.Flags().StringVar(&userID, "user", "", "owning user id")
	list.Flags().IntVar(&limit, "limit", 50, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")
	_ = list.MarkFlagRequired("user")
	cmd.AddCommand(list)
	return cmd
}

func newTable(headers ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(headers))
	return tw
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
