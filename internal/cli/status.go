package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollis/cradle/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service status",
	Long:  `Query the running Cradle service's health endpoint and print the result.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	host := cfg.Server.Host
	if host == "0.0.0.0" || host == "" {
		host = "127.0.0.1"
	}
	url := fmt.Sprintf("http://%s:%d/health", host, cfg.Server.Port)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Println("Status: stopped")
		return nil
	}
	defer resp.Body.Close()

	var health struct {
		Status                   string `json:"status"`
		HuckleberryAuthenticated bool   `json:"huckleberry_authenticated"`
		ActiveChildren           []struct {
			UID  string `json:"uid"`
			Name string `json:"name"`
		} `json:"active_children"`
		ActiveSessions int `json:"active_sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode health response: %w", err)
	}

	fmt.Printf("Status: %s\n", health.Status)
	fmt.Printf("Huckleberry authenticated: %v\n", health.HuckleberryAuthenticated)
	fmt.Printf("Active sessions: %d\n", health.ActiveSessions)
	for _, child := range health.ActiveChildren {
		fmt.Printf("Child: %s (%s)\n", child.Name, child.UID)
	}

	return nil
}
