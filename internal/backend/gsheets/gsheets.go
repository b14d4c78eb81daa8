// Package gsheets reads and writes tables held in Google Sheets through the
// Sheets v4 REST API.
package gsheets

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"

	"github.com/spigell/interview-automator/internal/sheet"
)

const (
	apiURL    = "https://sheets.googleapis.com/v4"
	scope     = "https://www.googleapis.com/auth/spreadsheets"
	userAgent = "spigell/interview-automator"
)

var spreadsheetURL = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

type Client struct {
	logger     *zap.Logger
	token      string
	documents  map[string]string
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client authorised by a service-account key. documents maps
// each table (worksheet) name to the spreadsheet URL or ID that holds it.
func New(ctx context.Context, logger *zap.Logger, credentialsJSON []byte, documents map[string]string) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, scope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	httpClient := conf.Client(ctx)
	httpClient.Timeout = 30 * time.Second

	return newClient(logger, "", documents, httpClient)
}

// NewWithToken creates a client that sends a static bearer token.
func NewWithToken(logger *zap.Logger, token string, documents map[string]string) (*Client, error) {
	return newClient(logger, token, documents, &http.Client{Timeout: 30 * time.Second})
}

func newClient(logger *zap.Logger, token string, documents map[string]string, httpClient *http.Client) (*Client, error) {
	ids := make(map[string]string, len(documents))
	for table, ref := range documents {
		id := SpreadsheetID(ref)
		if id == "" {
			return nil, fmt.Errorf("spreadsheet for table %q is not configured", table)
		}
		ids[table] = id
	}

	return &Client{
		logger:     logger,
		token:      token,
		documents:  ids,
		HTTPClient: httpClient,
		UserAgent:  userAgent,
		APIURL:     apiURL,
	}, nil
}

// SpreadsheetID extracts the document id from a spreadsheet URL; anything else
// is returned trimmed as an id.
func SpreadsheetID(ref string) string {
	ref = strings.TrimSpace(ref)
	if m := spreadsheetURL.FindStringSubmatch(ref); m != nil {
		return m[1]
	}
	return ref
}

func (c *Client) ReadTable(ctx context.Context, table string) ([][]string, error) {
	id, err := c.document(table)
	if err != nil {
		return nil, err
	}

	return c.getValues(ctx, id, table)
}

func (c *Client) WriteCells(ctx context.Context, table string, cells []sheet.Cell) error {
	if len(cells) == 0 {
		return nil
	}

	id, err := c.document(table)
	if err != nil {
		return err
	}

	return c.batchUpdate(ctx, id, table, cells)
}

func (c *Client) document(table string) (string, error) {
	id, ok := c.documents[table]
	if !ok {
		return "", fmt.Errorf("no spreadsheet holds %q: %w", table, sheet.ErrTableNotFound)
	}
	return id, nil
}

// quoteRange renders a worksheet name for A1 notation.
func quoteRange(table string) string {
	return "'" + strings.ReplaceAll(table, "'", "''") + "'"
}
