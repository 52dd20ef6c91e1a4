// Package main implements the triagectl CLI for manual operations
// against the triaged HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the triaged HTTP server.
	serverURL string
	version   = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "triagectl",
	Short: "CLI for triaged HTTP server operations",
	Long: `triagectl is a command-line interface for the triaged HTTP server.
It routes queries through the orchestration engine and manages the
documents the availability gate checks.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9180", "triaged server URL")
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsAddCmd)
	docsCmd.AddCommand(docsListCmd)

	routeCmd.Flags().StringVar(&routeUserID, "user", "", "user ID the query belongs to (required)")
	_ = routeCmd.MarkFlagRequired("user")

	docsAddCmd.Flags().StringVar(&docUserID, "user", "", "user ID the document belongs to (required)")
	docsAddCmd.Flags().StringVar(&docType, "type", "", "document type, e.g. benefits_summary (required)")
	docsAddCmd.Flags().StringVar(&docName, "name", "", "human-readable document name")
	docsAddCmd.Flags().StringVar(&docFile, "file", "", "file whose content should be indexed for retrieval")
	_ = docsAddCmd.MarkFlagRequired("user")
	_ = docsAddCmd.MarkFlagRequired("type")
}

var (
	routeUserID string
	docUserID   string
	docType     string
	docName     string
	docFile     string
)

// routeCmd sends a query through the orchestration engine.
var routeCmd = &cobra.Command{
	Use:   "route <query>",
	Short: "Route a query through the orchestration engine",
	Long: `Route a query through the orchestration engine and print the
routing decision, workflow results, and next steps.

Examples:
  # Route a query for a user
  triagectl route --user user-1 "what is my copay for a specialist visit"

  # Use a different server
  triagectl route --server http://localhost:8080 --user user-1 "..."`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute,
}

// healthCmd checks server health.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check triaged server health",
	RunE:  runHealth,
}

// docsCmd groups document management subcommands.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage the documents the availability gate checks",
}

var docsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a document for a user",
	Long: `Register a document for a user. With --file, the file content is
also indexed so the information retrieval workflow can search it.

Examples:
  triagectl docs add --user user-1 --type benefits_summary --name "2026 plan" --file plan.txt
  triagectl docs add --user user-1 --type insurance_card`,
	RunE: runDocsAdd,
}

var docsListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List a user's documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsList,
}

// RouteRequest matches internal/httpapi RouteRequest.
type RouteRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

// UpsertDocumentRequest matches internal/httpapi UpsertDocumentRequest.
type UpsertDocumentRequest struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

// HealthResponse matches internal/httpapi HealthResponse.
type HealthResponse struct {
	Status string `json:"status"`
}

func runRoute(cmd *cobra.Command, args []string) error {
	body, err := postJSON("/api/v1/route", RouteRequest{
		Query:  args[0],
		UserID: routeUserID,
	}, 60*time.Second)
	if err != nil {
		return err
	}
	return printIndented(body)
}

func runDocsAdd(cmd *cobra.Command, args []string) error {
	req := UpsertDocumentRequest{
		UserID: docUserID,
		Type:   docType,
		Name:   docName,
	}
	if docFile != "" {
		content, err := os.ReadFile(docFile)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", docFile, err)
		}
		req.Content = string(content)
	}

	body, err := postJSON("/api/v1/documents", req, 30*time.Second)
	if err != nil {
		return err
	}
	return printIndented(body)
}

func runDocsList(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/api/v1/documents/%s", serverURL, args[0])
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := readOK(resp)
	if err != nil {
		return err
	}
	return printIndented(body)
}

func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	body, err := readOK(resp)
	if err != nil {
		return err
	}

	var healthResp HealthResponse
	if err := json.Unmarshal(body, &healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	return nil
}

// postJSON sends a JSON POST and returns the response body on 2xx.
func postJSON(path string, payload any, timeout time.Duration) ([]byte, error) {
	reqJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := serverURL + path
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	return readOK(resp)
}

// readOK reads the body and converts non-2xx statuses into errors.
func readOK(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// printIndented pretty-prints a JSON body to stdout.
func printIndented(body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		// Not JSON; print as-is.
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
