package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed transcript.tmpl
var transcriptTemplate string

// maxTranscriptTurnChars caps how much of a single turn is written to a transcript
const maxTranscriptTurnChars = 20000

type transcriptData struct {
	CreatedAt string
	Turns     []Turn
}

// Transcript renders the display log of a session as a markdown document
func Transcript(s *Session) (string, error) {
	return renderTranscript(transcriptData{
		CreatedAt: time.Now().Format("2006-01-02 15:04:05 MST"),
		Turns:     s.DisplayLog(),
	})
}

func renderTranscript(data transcriptData) (string, error) {
	funcMap := template.FuncMap{
		"roleHeading": func(role Role) string {
			switch role {
			case RoleUser:
				return "🧑 User"
			case RoleAssistant:
				return "🕷️ Assistant"
			default:
				return string(role)
			}
		},
		"truncateContent": func(content string) string {
			truncated := truncateChars(content, maxTranscriptTurnChars)
			if truncated != content {
				return truncated + "\n... (content truncated)"
			}
			return content
		},
	}

	tmpl, err := template.New("transcript").Funcs(funcMap).Parse(transcriptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse transcript template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render transcript: %w", err)
	}
	return buf.String(), nil
}
