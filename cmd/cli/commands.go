package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd, metricsCmd, statsCmd, createCmd, stateCmd, autopickCmd, watchCmd)
	rootCmd.AddCommand(joinCmd, leaveCmd, pauseCmd, heartbeatCmd, claimCmd)
	rootCmd.AddCommand(startCmd, finishCmd, substituteCmd, grantCmd)
	rootCmd.AddCommand(resetCmd, wipeCmd, restoreCmd, drainCmd, auditCmd, settingsCmd, deleteCmd)

	createCmd.Flags().String("sport", "badminton", "Sport played in the new session")
	joinCmd.Flags().String("secret", "", "Join code, if the club has one")
	grantCmd.Flags().Bool("revoke", false, "Take queue management away instead")
	settingsCmd.Flags().String("sport", "", "Change sport")
	settingsCmd.Flags().Int("units", 0, "Number of units in use")
	settingsCmd.Flags().Int("pick-range", 0, "How deep into the queue guests may pick")
	settingsCmd.Flags().String("join-secret", "", "New join code")
	settingsCmd.Flags().String("elevated-secret", "", "New queue management code")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil, false)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil, false)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/stats", nil, true)
	},
}

var createCmd = &cobra.Command{
	Use:   "create [CLUB]",
	Short: "Create a session; omit CLUB to get a generated join code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sport, _ := cmd.Flags().GetString("sport")
		body := map[string]string{"sport": sport}
		if len(args) == 1 {
			body["id"] = args[0]
		}
		return performRequest(http.MethodPost, "/clubs", body, true)
	},
}

var stateCmd = &cobra.Command{
	Use:   "state CLUB",
	Short: "Print the current session document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/clubs/"+args[0], nil, false)
	},
}

var autopickCmd = &cobra.Command{
	Use:   "autopick CLUB",
	Short: "Suggest the next match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/clubs/"+args[0]+"/autopick", nil, false)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch CLUB",
	Short: "Stream session changes until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		url := "ws" + strings.TrimPrefix(host, "http") + "/clubs/" + args[0] + "/subscribe"
		conn, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer conn.CloseNow()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("connection closed: %w", err)
			}
			fmt.Println(string(data))
		}
	},
}

// Guest requests.

var joinCmd = &cobra.Command{
	Use:   "join CLUB NAME...",
	Short: "Join the queue",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		players := make([]map[string]string, 0, len(args)-1)
		for _, name := range args[1:] {
			players = append(players, map[string]string{"name": name})
		}
		return submit(args[0], "batch_join", map[string]any{"players": players, "secret": secret})
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave CLUB [NAME]",
	Short: "Leave the queue",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(args[0], "leave", map[string]string{"name": optionalArg(args, 1)})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause CLUB [NAME]",
	Short: "Pause or resume a queue entry",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(args[0], "toggle_pause", map[string]string{"name": optionalArg(args, 1)})
	},
}

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat CLUB",
	Short: "Tell the host you are still here",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/clubs/"+args[0]+"/heartbeat", map[string]string{"requester": requester}, false)
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim CLUB SECRET",
	Short: "Claim queue management with the code from the host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(args[0], "claim_power_guest", map[string]string{"secret": args[1]})
	},
}

// Match requests go through the guest path with --as, or straight to the
// host path with --token.

var startCmd = &cobra.Command{
	Use:   "start CLUB UNIT NAME...",
	Short: "Start a match on a unit (units count from 1)",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := unitArg(args[1])
		if err != nil {
			return err
		}
		return act(args[0], "start_match", map[string]any{"unit": unit, "players": args[2:]})
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish CLUB UNIT [WINNER...]",
	Short: "Finish the match on a unit",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := unitArg(args[1])
		if err != nil {
			return err
		}
		return act(args[0], "finish_match", map[string]any{"unit": unit, "winners": args[2:]})
	},
}

var substituteCmd = &cobra.Command{
	Use:   "substitute CLUB UNIT OUT IN",
	Short: "Swap a waiting player onto a running match",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := unitArg(args[1])
		if err != nil {
			return err
		}
		return act(args[0], "substitute", map[string]any{"unit": unit, "out": args[2], "in": args[3]})
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant CLUB NAME",
	Short: "Give a waiting player queue management",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		revoke, _ := cmd.Flags().GetBool("revoke")
		return hostAction(args[0], "grant_power_guest", map[string]any{"name": args[1], "revoke": revoke})
	},
}

// Host maintenance.

var resetCmd = &cobra.Command{
	Use:   "reset CLUB",
	Short: "End the session and post the leaderboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/clubs/"+args[0]+"/reset", nil, true)
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe CLUB",
	Short: "Reset and also forget the roster and codes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/clubs/"+args[0]+"/wipe", nil, true)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore CLUB",
	Short: "Bring back the queue of the last session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/clubs/"+args[0]+"/restore", nil, true)
	},
}

var drainCmd = &cobra.Command{
	Use:   "drain CLUB",
	Short: "Apply pending guest requests now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/clubs/"+args[0]+"/drain", nil, true)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit CLUB",
	Short: "Show the session's audit log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/clubs/"+args[0]+"/audit", nil, true)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete CLUB",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/clubs/"+args[0], nil, true)
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings CLUB",
	Short: "Change session settings; only flags given are changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := map[string]any{}
		flags := cmd.Flags()
		if flags.Changed("sport") {
			v, _ := flags.GetString("sport")
			patch["sport"] = v
		}
		if flags.Changed("units") {
			v, _ := flags.GetInt("units")
			patch["active_unit_count"] = v
		}
		if flags.Changed("pick-range") {
			v, _ := flags.GetInt("pick-range")
			patch["pick_range"] = v
		}
		if flags.Changed("join-secret") {
			v, _ := flags.GetString("join-secret")
			patch["join_secret"] = v
		}
		if flags.Changed("elevated-secret") {
			v, _ := flags.GetString("elevated-secret")
			patch["elevated_guest_secret"] = v
		}
		if len(patch) == 0 {
			return fmt.Errorf("nothing to change")
		}
		return performRequest(http.MethodPatch, "/clubs/"+args[0]+"/settings", patch, true)
	},
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

// unitArg turns the 1-based unit number people read off the wall into an
// index.
func unitArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid unit %q", s)
	}
	return n - 1, nil
}

func act(clubID, action string, payload any) error {
	if token != "" && requester == "" {
		return hostAction(clubID, action, payload)
	}
	return submit(clubID, action, payload)
}

func submit(clubID, action string, payload any) error {
	if requester == "" {
		return fmt.Errorf("--as is required for guest requests")
	}
	body := map[string]any{"action": action, "requester": requester, "payload": payload}
	return performRequest(http.MethodPost, "/clubs/"+clubID+"/requests", body, false)
}

func hostAction(clubID, action string, payload any) error {
	body := map[string]any{"action": action, "payload": payload}
	return performRequest(http.MethodPost, "/clubs/"+clubID+"/actions", body, true)
}

func performRequest(method, endpoint string, body any, asHost bool) error {
	url := host + endpoint
	if dryRun {
		url += "?dry_run=true"
	}
	fmt.Printf("Making request to %s\n", url)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if asHost {
		if token == "" {
			return fmt.Errorf("--token is required for host commands")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
