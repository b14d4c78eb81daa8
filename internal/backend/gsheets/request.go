package gsheets

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/sheet"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

type batchUpdateRequest struct {
	ValueInputOption string        `json:"valueInputOption"`
	Data             []*valueRange `json:"data"`
}

// APIError is the error envelope returned by the Sheets API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sheets api: %d %s: %s", e.Code, e.Status, e.Message)
}

func (c *Client) getValues(ctx context.Context, id, table string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s", c.APIURL, id, url.PathEscape(quoteRange(table)))

	q := url.Values{}
	q.Set("majorDimension", "ROWS")
	q.Set("valueRenderOption", "FORMATTED_VALUE")

	var response valueRange
	if err := c.getJSON(ctx, endpoint, q, &response); err != nil {
		return nil, fmt.Errorf("get values of %q: %w", table, err)
	}

	c.logger.Debug("got values from sheets", zap.String("table", table), zap.Int("rows", len(response.Values)))

	return response.Values, nil
}

func (c *Client) batchUpdate(ctx context.Context, id, table string, cells []sheet.Cell) error {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values:batchUpdate", c.APIURL, id)

	body := batchUpdateRequest{ValueInputOption: "USER_ENTERED"}
	for _, cell := range cells {
		body.Data = append(body.Data, &valueRange{
			Range:  quoteRange(table) + "!" + cell.A1(),
			Values: [][]string{{cell.Value}},
		})
	}

	if err := c.postJSON(ctx, endpoint, body); err != nil {
		return fmt.Errorf("batch update of %q: %w", table, err)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, target)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, nil)
}

func decodeResponse(resp *http.Response, target interface{}) error {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != nil {
			return envelope.Error
		}
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
