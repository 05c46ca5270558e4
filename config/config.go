package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/bboxx/overwatch/fetcher"
	"github.com/bboxx/overwatch/publisher/datadog"
	"github.com/bboxx/overwatch/publisher/elasticsearch"
	"github.com/bboxx/overwatch/publisher/prometheus"
	"github.com/bboxx/overwatch/publisher/stdout"
	"github.com/bboxx/overwatch/server"
	"gopkg.in/yaml.v2"
)

// Config for overwatch
type Config struct {
	LogLevel   string                    `json:"log_level" yaml:"log_level"`
	TestsPath  string                    `json:"tests_path" yaml:"tests_path"`
	StoreURI   string                    `json:"store_uri" yaml:"store_uri"`
	Run        RunConfig                 `json:"run" yaml:"run"`
	Fetchers   map[string]fetcher.Config `json:"fetchers" yaml:"fetchers"`
	Publishers PublisherConfig           `json:"publishers" yaml:"publishers"`
	Server     server.Config             `json:"server" yaml:"server"`
}

// RunConfig options for masters dispatching work
type RunConfig struct {
	BatchSize        int           `json:"batch_size" yaml:"batch_size"`
	MaxIterations    int           `json:"max_iterations" yaml:"max_iterations"`
	TimeBetweenCalls time.Duration `json:"time_between_calls" yaml:"time_between_calls"`
	MaxTestDuration  time.Duration `json:"max_test_duration" yaml:"max_test_duration"`
	WorkerURL        string        `json:"worker_url" yaml:"worker_url"`
	Schedule         string        `json:"schedule" yaml:"schedule"`
}

// PublisherConfig options
type PublisherConfig struct {
	Stdout        stdout.Config        `json:"stdout" yaml:"stdout"`
	Datadog       datadog.Config       `json:"datadog" yaml:"datadog"`
	Prometheus    prometheus.Config    `json:"prometheus" yaml:"prometheus"`
	Elasticsearch elasticsearch.Config `json:"elasticsearch" yaml:"elasticsearch"`
}

// DefaultConfig for overwatch
var DefaultConfig = Config{
	LogLevel:  "INFO",
	TestsPath: "tests/*.yaml",
	StoreURI:  "memory:-",
	Run: RunConfig{
		BatchSize:        20,
		MaxIterations:    30,
		TimeBetweenCalls: time.Second * 2,
		MaxTestDuration:  time.Minute * 5,
	},
	Server: server.Config{
		ListenAddress:     "0.0.0.0:8080",
		WriteTimeout:      time.Second * 600,
		ReadTimeout:       time.Second * 600,
		ReadHeaderTimeout: time.Second * 600,
	},
	Publishers: PublisherConfig{
		Stdout: stdout.Config{Pretty: false},
		Prometheus: prometheus.Config{
			Path: "/metrics",
		},
	},
}

// Read the configuration from the given file. Environment variables in
// the file are expanded so credentials can stay out of it.
func Read(path string) (c Config, err error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: error reading file: %w", err)
	}

	c = DefaultConfig
	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(buf))), &c); err != nil {
		return c, fmt.Errorf("config: error parsing file: %w", err)
	}

	return c, nil
}

// Write the configuration to the given file
func Write(c Config, path string) (err error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("config: error encoding configuration: %w", err)
	}

	if err = ioutil.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("config: error writing file: %w", err)
	}

	return nil
}
