package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/scena/internal/config"
)

// --- match ---

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank the talent catalog against a role description",
	Long: `Rank the talent catalog against a role description.

Examples:
  scena match --role "Looking for a lead actress for a romantic comedy, Hindi, dancing required"
  scena match --role "Veteran villain for an action thriller" --limit 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		limit, _ := cmd.Flags().GetInt("limit")

		if role == "" {
			return fmt.Errorf("--role is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/match", map[string]any{
			"role_description": role,
		})
		if err != nil {
			return err
		}

		var report struct {
			TotalCandidates  int `json:"total_candidates"`
			QualifiedMatches int `json:"qualified_matches"`
			AllMatches       []struct {
				Talent struct {
					Name     string `json:"name"`
					Location string `json:"location"`
				} `json:"talent"`
				Score   int      `json:"match_score"`
				Reasons []string `json:"reasoning"`
				Tier    string   `json:"recommendation_tier"`
			} `json:"all_matches"`
			Insights []string `json:"insights"`
		}
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}

		matches := report.AllMatches
		if limit > 0 && len(matches) > limit {
			matches = matches[:limit]
		}

		if len(matches) == 0 {
			fmt.Println("No matches found.")
		}
		for i, m := range matches {
			fmt.Printf("\n%s %s [%d, %s]\n",
				colorize(colorBold, fmt.Sprintf("%d.", i+1)),
				colorize(colorBold, m.Talent.Name),
				m.Score,
				m.Tier,
			)
			if m.Talent.Location != "" {
				fmt.Printf("   %s\n", m.Talent.Location)
			}
			for _, reason := range m.Reasons {
				fmt.Printf("   - %s\n", reason)
			}
		}

		if len(report.Insights) > 0 {
			fmt.Println()
			for _, insight := range report.Insights {
				fmt.Printf("%s %s\n", colorize(colorCyan, "→"), insight)
			}
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().String("role", "", "free-text role description")
	matchCmd.Flags().Int("limit", 0, "maximum number of matches to show (default: all)")
}

// --- talents ---

var talentsCmd = &cobra.Command{
	Use:   "talents",
	Short: "Manage the talent catalog",
}

var talentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all talent profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/talents")
		if err != nil {
			return err
		}

		var profiles []struct {
			ID          string   `json:"id"`
			Name        string   `json:"name"`
			Age         int      `json:"age"`
			Location    string   `json:"location"`
			Skills      []string `json:"skills"`
			Specialties []string `json:"specialties"`
		}
		if err := decodeJSON(resp, &profiles); err != nil {
			return err
		}

		if len(profiles) == 0 {
			fmt.Println("No talents found.")
			return nil
		}

		for _, p := range profiles {
			fmt.Printf("%s  %s (%d, %s)\n",
				colorize(colorCyan, shortID(p.ID)),
				colorize(colorBold, p.Name),
				p.Age,
				p.Location,
			)
			if len(p.Skills) > 0 {
				fmt.Printf("          skills: %s\n", strings.Join(p.Skills, ", "))
			}
			if len(p.Specialties) > 0 {
				fmt.Printf("          genres: %s\n", strings.Join(p.Specialties, ", "))
			}
		}
		return nil
	},
}

var talentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a talent profile from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading profile file: %w", err)
		}

		var profile map[string]any
		if err := json.Unmarshal(data, &profile); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/talents", profile)
		if err != nil {
			return err
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Added talent %s", result.ID)
		return nil
	},
}

func init() {
	talentsCmd.AddCommand(talentsListCmd)
	talentsCmd.AddCommand(talentsAddCmd)
}

// --- session ---

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect conversation sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's history and metadata as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/session/"+args[0])
		if err != nil {
			return err
		}

		var sess any
		if err := decodeJSON(resp, &sess); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/session/"+args[0])
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Deleted session %s", args[0])
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
