package profiling

import (
	"fmt"
	"strings"
	"time"

	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

const defaultAppName = "portfolio-api"

var defaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexCount,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockCount,
	pyroscope.ProfileBlockDuration,
}

var profileTypeMap = map[string][]pyroscope.ProfileType{
	"cpu":           {pyroscope.ProfileCPU},
	"alloc_space":   {pyroscope.ProfileAllocSpace},
	"alloc_objects": {pyroscope.ProfileAllocObjects},
	"goroutines":    {pyroscope.ProfileGoroutines},
	"mutex":         {pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration},
	"block":         {pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration},
}

// Options configures continuous profiling
type Options struct {
	Enabled        bool
	Endpoint       string
	AppName        string
	SampleTypes    string
	UploadInterval time.Duration
	ServiceName    string
	Namespace      string
	Version        string
	InstanceID     string
	Environment    string
}

// Start begins pushing profiles to Pyroscope. The returned func stops it.
func Start(opts Options) (func(), error) {
	if !opts.Enabled {
		logger.Info("Continuous profiling disabled")
		return func() {}, nil
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}
	if opts.UploadInterval <= 0 {
		opts.UploadInterval = 15 * time.Second
	}

	profileTypes, err := parseProfileTypes(opts.SampleTypes)
	if err != nil {
		return nil, err
	}

	appName := applicationName(opts)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   endpoint,
		UploadRate:      opts.UploadInterval,
		ProfileTypes:    profileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling initialized",
		zap.String("application_name", appName),
		zap.String("endpoint", endpoint),
		zap.Duration("upload_interval", opts.UploadInterval),
	)

	return func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			logger.Error("Failed to stop profiler", zap.Error(stopErr))
		}
	}, nil
}

// parseProfileTypes reads a comma-separated O11Y_PROFILING_SAMPLE_TYPES value
func parseProfileTypes(value string) ([]pyroscope.ProfileType, error) {
	if strings.TrimSpace(value) == "" {
		return defaultProfileTypes, nil
	}

	var types []pyroscope.ProfileType
	seen := make(map[pyroscope.ProfileType]bool)

	for _, raw := range strings.Split(value, ",") {
		key := strings.ToLower(strings.TrimSpace(raw))
		mapped, ok := profileTypeMap[key]
		if !ok {
			return nil, fmt.Errorf("unsupported O11Y_PROFILING_SAMPLE_TYPES value: %q", key)
		}
		for _, t := range mapped {
			if !seen[t] {
				types = append(types, t)
				seen[t] = true
			}
		}
	}

	return types, nil
}

// applicationName renders "app{label=value,...}" as Pyroscope expects
func applicationName(opts Options) string {
	base := strings.TrimSpace(opts.AppName)
	if base == "" {
		base = defaultAppName
	}

	labels := []string{
		"service_name=" + opts.ServiceName,
		"namespace=" + opts.Namespace,
		"environment=" + opts.Environment,
		"service_version=" + opts.Version,
		"instance=" + opts.InstanceID,
	}

	return fmt.Sprintf("%s{%s}", base, strings.Join(labels, ","))
}
