package command

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const apiPrefix = "/api/v1"

var dialClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doRequest sends a request to the ledger server named by the --url flag and returns the body.
// Replies with a status of 400 or more are returned as errors.
func doRequest(cmd *cobra.Command, path, method string, body interface{}) (string, error) {
	endpoint, err := cmd.Flags().GetString("url")
	if err != nil {
		return "", errors.WithStack(err)
	}
	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "http://" + endpoint
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", errors.WithStack(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, endpoint+path, reader)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key, _ := cmd.Flags().GetString("api-key"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := dialClient.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer resp.Body.Close()
	content, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("[%d] %s", resp.StatusCode, errorDetail(content))
	}
	return string(content), nil
}

func errorDetail(content []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(content, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	return strings.TrimSpace(string(content))
}

func usageErr(cmd *cobra.Command) {
	cmd.Println(cmd.UsageString())
}
