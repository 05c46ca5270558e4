package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/bboxx/overwatch/api"
	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/store"
)

// Config for overwatch client
type Config struct {
	URL                string
	Username           string
	Password           string
	Timeout            time.Duration
	TimeBetweenCalls   time.Duration
	InsecureSkipVerify bool
}

// Client for the overwatch api. It implements dispatch.Invoker so a master
// can hand work to remote workers over http.
type Client struct {
	http   *http.Client
	config Config
}

var _ dispatch.Invoker = (*Client)(nil)

// New creates a new client
func New(c Config) (client *Client, err error) {
	client = &Client{}
	client.config = c
	transport := &http.Transport{}
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: c.InsecureSkipVerify}
	client.http = &http.Client{Transport: transport}
	client.http.Timeout = c.Timeout

	return client, nil
}

// Invoke sends the given payload to the remote worker. Invocations are
// accepted asynchronously, a successful call only means the worker has
// taken the payload. Slave invocations are paced by TimeBetweenCalls to
// avoid overwhelming the data sources under evaluation.
func (c *Client) Invoke(ctx context.Context, payload dispatch.Payload) (err error) {

	buf, err := json.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("client: error marshaling request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.config.URL+api.EndpointRun, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("client: error creating request: %w", err)
	}
	req = req.WithContext(ctx)
	req.Header.Add("Content-Type", "application/json")
	if c.config.Username != "" && c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		buf, _ = ioutil.ReadAll(resp.Body)
		var ar api.Result
		if json.Unmarshal(buf, &ar) == nil && ar.Error != "" {
			return fmt.Errorf("client: server error: %s", ar.Error)
		}
		return fmt.Errorf("client: unexpected status: %s", resp.Status)
	}

	if payload.Role == dispatch.RoleSlave && c.config.TimeBetweenCalls > 0 {
		select {
		case <-time.After(c.config.TimeBetweenCalls):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// GetResult fetches the latest results for the given test from the server
func (c *Client) GetResult(name string) (r []store.Result, err error) {
	if name == "" {
		return nil, fmt.Errorf("client: must specify test name")
	}
	return c.getResults(name)
}

// GetResults fetches the latest result for all tests from the server
func (c *Client) GetResults() (r []store.Result, err error) {
	return c.getResults("")
}

func (c *Client) getResults(name string) (r []store.Result, err error) {

	var req *http.Request
	switch name != "" {
	case true:
		req, err = http.NewRequest(http.MethodGet, c.config.URL+api.EndpointResult+"/"+name, nil)
	case false:
		req, err = http.NewRequest(http.MethodGet, c.config.URL+api.EndpointResult, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("client: error creating request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")
	if c.config.Username != "" && c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: error sending request: %w", err)
	}
	defer resp.Body.Close()

	buf, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: error reading response: %w", err)
	}

	var ar api.Result
	err = json.Unmarshal(buf, &ar)
	if err != nil {
		return nil, fmt.Errorf("client: error unmarshaling response: %w", err)
	}

	if ar.Error != "" {
		return nil, fmt.Errorf("client: server error: %s", ar.Error)
	}

	return ar.Results, nil
}
