package host

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
)

// Chunk is one buffer handed to a log entry point.
type Chunk struct {
	Stream string `yaml:"stream"`
	Data   string `yaml:"data"`
}

// StreamID resolves the chunk's stream name.
func (c Chunk) StreamID() (entities.Stream, error) {
	s, ok := entities.ParseStream(c.Stream)
	if !ok {
		return 0, fmt.Errorf("unknown stream %q", c.Stream)
	}
	return s, nil
}

// Scenario is one command session as the front end would drive it.
type Scenario struct {
	// Version is the API version advertised to open, as "major.minor".
	// Empty means the version the SDK is compiled against.
	Version       string   `yaml:"version"`
	Settings      []string `yaml:"settings"`
	UserInfo      []string `yaml:"user_info"`
	CommandInfo   []string `yaml:"command_info"`
	Argv          []string `yaml:"argv"`
	Argc          *int     `yaml:"argc"`
	UserEnv       []string `yaml:"user_env"`
	PluginOptions []string `yaml:"plugin_options"`
	// Replies answer conversation prompts in order. Prompts beyond the
	// list get an empty reply.
	Replies    []string `yaml:"replies"`
	Streams    []Chunk  `yaml:"streams"`
	ExitStatus int      `yaml:"exit_status"`
	Error      int      `yaml:"error"`
}

// DefaultScenario describes the current user running /bin/true with every
// stream hinted for logging.
func DefaultScenario() *Scenario {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "nobody"
	}
	return &Scenario{
		Settings: []string{"progname=sudo"},
		UserInfo: []string{
			"user=" + user,
			"uid=" + strconv.Itoa(unix.Getuid()),
			"gid=" + strconv.Itoa(unix.Getgid()),
			"pid=" + strconv.Itoa(unix.Getpid()),
			"cwd=" + cwd,
		},
		CommandInfo: []string{
			"command=/bin/true",
			"runas_uid=0",
			"cwd=" + cwd,
			"iolog_ttyin=true",
			"iolog_ttyout=true",
			"iolog_stdin=true",
			"iolog_stdout=true",
			"iolog_stderr=true",
		},
		Argv:    []string{"/bin/true"},
		UserEnv: []string{"PATH=/usr/bin:/bin"},
	}
}

// ParseScenario decodes a YAML scenario. Unknown keys are rejected and an
// empty document yields an empty scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !stdErrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario reads and parses the scenario file at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Validate checks the fields the host itself interprets. The info arrays are
// passed through untouched so malformed entries can be replayed on purpose.
func (s *Scenario) Validate() error {
	if _, err := s.APIVersion(); err != nil {
		return err
	}
	if s.Argc != nil && *s.Argc < 0 {
		return fmt.Errorf("argc must not be negative, got %d", *s.Argc)
	}
	for i, c := range s.Streams {
		if _, err := c.StreamID(); err != nil {
			return fmt.Errorf("streams[%d]: %w", i, err)
		}
	}
	return nil
}

// APIVersion parses Version.
func (s *Scenario) APIVersion() (entities.Version, error) {
	if s.Version == "" {
		return entities.CompiledVersion, nil
	}
	majorStr, minorStr, ok := strings.Cut(s.Version, ".")
	if !ok {
		return 0, fmt.Errorf("version %q is not major.minor", s.Version)
	}
	major, err := strconv.ParseUint(majorStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("version %q: bad major: %w", s.Version, err)
	}
	minor, err := strconv.ParseUint(minorStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("version %q: bad minor: %w", s.Version, err)
	}
	return entities.MakeVersion(uint16(major), uint16(minor)), nil
}

// ArgCount is the argc passed to open: the override when set, otherwise
// len(Argv).
func (s *Scenario) ArgCount() int {
	if s.Argc != nil {
		return *s.Argc
	}
	return len(s.Argv)
}
