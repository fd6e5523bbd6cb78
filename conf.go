/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Client configuration
 */

package ippclient

import (
	"crypto/tls"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPrinting/goipp"
	"golang.org/x/text/language"
	"gopkg.in/ini.v1"
)

const (
	// ConfFileName defines a name of the configuration file
	ConfFileName = "ippclient.conf"
)

// Configuration represents the client configuration
type Configuration struct {
	Timeout         time.Duration // Per-transaction timeout
	MaxResponseSize int64         // IPP response size limit
	UserName        string        // requesting-user-name
	NaturalLanguage string        // attributes-natural-language
	Version         goipp.Version // IPP version of requests
	TLSVerify       bool          // Verify server certificates
	PollInterval    time.Duration // Job state polling interval
	LogConsole      LogLevel      // Console LogLevel mask
	ColorConsole    bool          // Enable ANSI colors on console
	LogFile         string        // Log file path, "" if none
	LogFileLevels   LogLevel      // Log file LogLevel mask
	LogMaxFileSize  int64         // Log file size that triggers rotation
	LogMaxBackups   int           // Count of files preserved during rotation
}

// DefaultConfiguration contains default values of all parameters
var DefaultConfiguration = Configuration{
	Timeout:         DefaultTimeout,
	MaxResponseSize: DefaultMaxResponseSize,
	NaturalLanguage: DefaultNaturalLanguage,
	Version:         goipp.DefaultVersion,
	TLSVerify:       true,
	PollInterval:    DefaultPollInterval,
	LogConsole:      LogError | LogInfo,
	ColorConsole:    true,
	LogFileLevels:   LogError | LogInfo | LogDebug,
	LogMaxFileSize:  1024 * 1024,
	LogMaxBackups:   5,
}

// LoadConfiguration loads configuration from the file.
// Parameters missed in the file retain their default values.
// Missed file is not an error.
func LoadConfiguration(path string) (Configuration, error) {
	conf := DefaultConfiguration
	err := conf.Load(path)
	return conf, err
}

// Load updates configuration from the file. Missed file is
// not an error
func (conf *Configuration) Load(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("conf: %s", err)
	}

	for _, sec := range file.Sections() {
		for _, key := range sec.Keys() {
			err = conf.loadKey(sec.Name(), key)
			if err != nil {
				return fmt.Errorf("conf: %s: [%s] %s",
					path, sec.Name(), err)
			}
		}
	}

	return nil
}

// loadKey loads a single key. Unknown keys are ignored
func (conf *Configuration) loadKey(section string, key *ini.Key) error {
	switch section {
	case "client":
		switch key.Name() {
		case "timeout":
			return confLoadDurationKey(&conf.Timeout, key)
		case "max-response-size":
			return confLoadSizeKey(&conf.MaxResponseSize, key)
		case "user-name":
			conf.UserName = key.Value()
		case "natural-language":
			return confLoadLanguageKey(&conf.NaturalLanguage, key)
		case "ipp-version":
			return confLoadVersionKey(&conf.Version, key)
		}
	case "tls":
		switch key.Name() {
		case "verify":
			return confLoadBinaryKey(&conf.TLSVerify, key, "disable", "enable")
		}
	case "poll":
		switch key.Name() {
		case "interval":
			return confLoadDurationKey(&conf.PollInterval, key)
		}
	case "logging":
		switch key.Name() {
		case "console-log":
			return confLoadLogLevelKey(&conf.LogConsole, key)
		case "console-color":
			return confLoadBinaryKey(&conf.ColorConsole, key, "disable", "enable")
		case "file":
			conf.LogFile = key.Value()
		case "file-log":
			return confLoadLogLevelKey(&conf.LogFileLevels, key)
		case "max-file-size":
			return confLoadSizeKey(&conf.LogMaxFileSize, key)
		case "max-backup-files":
			return confLoadUintKey(&conf.LogMaxBackups, key)
		}
	}

	return nil
}

// NewExecutor creates Executor, configured according to
// the configuration
func (conf *Configuration) NewExecutor(log *Logger) *Executor {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !conf.TLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Executor{
		Client:          &http.Client{Transport: transport},
		Timeout:         conf.Timeout,
		MaxResponseSize: conf.MaxResponseSize,
		Log:             log,
	}
}

// NewLogger creates console Logger, according to the configuration.
// If log file is configured, messages are copied into the file
func (conf *Configuration) NewLogger() *Logger {
	log := NewConsoleLogger(conf.LogConsole)
	if !conf.ColorConsole {
		log.SetColor(false)
	}

	if conf.LogFile != "" {
		log.Cc(NewFileLogger(conf.LogFile, conf.LogFileLevels,
			conf.LogMaxFileSize, conf.LogMaxBackups))
	}

	return log
}

// PrinterOptions returns Printer options, according to
// the configuration
func (conf *Configuration) PrinterOptions() []PrinterOption {
	opts := []PrinterOption{
		WithNaturalLanguage(conf.NaturalLanguage),
		WithVersion(conf.Version),
	}

	if conf.UserName != "" {
		opts = append(opts, WithUserName(conf.UserName))
	}

	return opts
}

// Create "bad value" error
func confBadValue(key *ini.Key, format string, args ...interface{}) error {
	return fmt.Errorf(key.Name()+": "+format, args...)
}

// Load duration key. Duration must be positive
func confLoadDurationKey(out *time.Duration, key *ini.Key) error {
	d, err := key.Duration()
	if err != nil {
		return confBadValue(key, "%q: invalid duration", key.Value())
	}

	if d <= 0 {
		return confBadValue(key, "must be positive")
	}

	*out = d
	return nil
}

// Load the binary key
func confLoadBinaryKey(out *bool, key *ini.Key, vFalse, vTrue string) error {
	switch key.Value() {
	case vFalse:
		*out = false
		return nil
	case vTrue:
		*out = true
		return nil
	default:
		return confBadValue(key, "must be %s or %s", vFalse, vTrue)
	}
}

// Load unsigned integer key
func confLoadUintKey(out *int, key *ini.Key) error {
	num, err := strconv.ParseUint(key.Value(), 10, 31)
	if err != nil {
		return confBadValue(key, "%q: invalid number", key.Value())
	}

	*out = int(num)
	return nil
}

// Load LogLevel key
func confLoadLogLevelKey(out *LogLevel, key *ini.Key) error {
	var mask LogLevel
	for _, s := range strings.Split(key.Value(), ",") {
		s = strings.TrimSpace(s)
		switch s {
		case "":
		case "error":
			mask |= LogError
		case "info":
			mask |= LogInfo | LogError
		case "debug":
			mask |= LogDebug | LogInfo | LogError
		case "trace-ipp":
			mask |= LogTraceIPP | LogDebug | LogInfo | LogError
		case "trace-http":
			mask |= LogTraceHTTP | LogDebug | LogInfo | LogError
		case "all", "trace-all":
			mask |= LogAll
		default:
			return confBadValue(key, "invalid log level %q", s)
		}
	}

	*out = mask
	return nil
}

// Load size key
func confLoadSizeKey(out *int64, key *ini.Key) error {
	units := uint64(1)
	value := key.Value()

	if l := len(value); l > 0 {
		switch value[l-1] {
		case 'k', 'K':
			units = 1024
		case 'm', 'M':
			units = 1024 * 1024
		}

		if units != 1 {
			value = value[:l-1]
		}
	}

	sz, err := strconv.ParseUint(value, 10, 64)
	if err != nil || sz == 0 {
		return confBadValue(key, "%q: invalid size", key.Value())
	}

	if sz > uint64(math.MaxInt64/units) {
		return confBadValue(key, "size too large")
	}

	*out = int64(sz * units)
	return nil
}

// Load natural language key. Value must be a valid BCP 47
// language tag; it is saved in the canonical form
func confLoadLanguageKey(out *string, key *ini.Key) error {
	tag, err := language.Parse(key.Value())
	if err != nil {
		return confBadValue(key, "%q: invalid language", key.Value())
	}

	*out = strings.ToLower(tag.String())
	return nil
}

// Load IPP version key
func confLoadVersionKey(out *goipp.Version, key *ini.Key) error {
	switch key.Value() {
	case "1.0":
		*out = goipp.MakeVersion(1, 0)
	case "1.1":
		*out = goipp.MakeVersion(1, 1)
	case "2.0":
		*out = goipp.MakeVersion(2, 0)
	case "2.1":
		*out = goipp.MakeVersion(2, 1)
	case "2.2":
		*out = goipp.MakeVersion(2, 2)
	default:
		return confBadValue(key, "%q: unsupported IPP version", key.Value())
	}

	return nil
}
