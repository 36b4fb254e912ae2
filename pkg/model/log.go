package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider identifies the CI/CD system that produced a log entry.
type Provider string

const (
	ProviderGitHub  Provider = "GITHUB"
	ProviderGitLab  Provider = "GITLAB"
	ProviderJenkins Provider = "JENKINS"
	ProviderAPI     Provider = "API"
)

var ErrUnknownProvider = errors.New("unknown provider")

// providerAliases maps folded provider spellings to canonical values.
// Keys are the input after uppercasing and removing every non-letter rune,
// so "GitHub Actions", "github-actions" and "GITHUBACTIONS" all collide.
var providerAliases = map[string]Provider{
	"GITHUB":        ProviderGitHub,
	"GITHUBACTIONS": ProviderGitHub,
	"GH":            ProviderGitHub,
	"GITLAB":        ProviderGitLab,
	"GITLABCI":      ProviderGitLab,
	"GITLABCICD":    ProviderGitLab,
	"GL":            ProviderGitLab,
	"JENKINS":       ProviderJenkins,
	"API":           ProviderAPI,
}

// NormalizeProvider maps a free-form provider string to a canonical Provider.
// Unknown input is an error, never a best-guess default.
func NormalizeProvider(raw string) (Provider, error) {
	folded := strings.Map(func(r rune) rune {
		if r < 'A' || r > 'Z' {
			return -1
		}
		return r
	}, strings.ToUpper(raw))

	provider, ok := providerAliases[folded]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
	}
	return provider, nil
}

// NormalizeWebhookProvider is NormalizeProvider restricted to real CI systems.
// Generic API callers must use the upload path instead of the webhook.
func NormalizeWebhookProvider(raw string) (Provider, error) {
	provider, err := NormalizeProvider(raw)
	if err != nil {
		return "", err
	}
	if provider == ProviderAPI {
		return "", fmt.Errorf("%w: %q is not accepted on webhooks", ErrUnknownProvider, raw)
	}
	return provider, nil
}

// LogPayload is a log body that is either raw text or a structured document.
// The variant is decided once when the payload is decoded at the HTTP
// boundary; only the text variant is subject to sanitization. Stored as a
// single jsonb column.
type LogPayload struct {
	Text string
	Doc  JSONB
}

func TextPayload(text string) LogPayload {
	return LogPayload{Text: text}
}

func (p LogPayload) IsText() bool {
	return p.Doc == nil
}

func (p LogPayload) IsZero() bool {
	return p.Doc == nil && p.Text == ""
}

func (p *LogPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = LogPayload{}
		return nil
	}
	switch trimmed[0] {
	case '{':
		doc := JSONB{}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return err
		}
		*p = LogPayload{Doc: doc}
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*p = LogPayload{Text: text}
	default:
		// Arrays and scalars are kept in their textual JSON form.
		*p = LogPayload{Text: string(trimmed)}
	}
	return nil
}

func (p LogPayload) MarshalJSON() ([]byte, error) {
	if p.Doc != nil {
		return json.Marshal(p.Doc)
	}
	return json.Marshal(p.Text)
}

func (p LogPayload) Value() (driver.Value, error) {
	return p.MarshalJSON()
}

func (p *LogPayload) Scan(value interface{}) error {
	if value == nil {
		*p = LogPayload{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan LogPayload: %v", value)
	}
	return p.UnmarshalJSON(data)
}

func (p LogPayload) GormDataType() string {
	return "jsonb"
}

// LogEntry is the persisted unit of ingestion. Entries are append-only:
// created by the gateway on successful validation, never updated, deleted
// only by the offline duplicate cleanup.
type LogEntry struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	RunID             string     `gorm:"not null;index:idx_logs_run_id" json:"run_id"`
	Provider          Provider   `gorm:"type:varchar(20);not null" json:"provider"`
	RepoName          string     `gorm:"not null" json:"repo_name"`
	Author            string     `gorm:"not null" json:"author"`
	PipelineName      string     `gorm:"not null" json:"pipeline_name"`
	LogData           LogPayload `gorm:"type:jsonb;not null" json:"log_data"`
	Source            string     `json:"source,omitempty"`
	TimestampOriginal *time.Time `json:"timestamp_original,omitempty"`
	TimestampReceived time.Time  `gorm:"not null;index:idx_logs_received" json:"timestamp_received"`
}

func (LogEntry) TableName() string {
	return "logs"
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONB) GormDataType() string {
	return "jsonb"
}
