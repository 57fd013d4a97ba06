package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gitswift/gitswift/internal/sync"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	case "yml":
		return formatYAML, nil
	case "":
		return formatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// writeStructured encodes v as json or yaml.
func writeStructured(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", format)
}

type summaryView struct {
	Files     int   `json:"files" yaml:"files"`
	Created   int   `json:"created" yaml:"created"`
	Updated   int   `json:"updated" yaml:"updated"`
	Skipped   int   `json:"skipped_identical" yaml:"skipped_identical"`
	Failed    int   `json:"failed" yaml:"failed"`
	BytesSent int64 `json:"bytes_written" yaml:"bytes_written"`
}

type outcomeView struct {
	Path   string `json:"path" yaml:"path"`
	Action string `json:"action" yaml:"action"`
	Size   int64  `json:"size" yaml:"size"`
	Op     string `json:"op,omitempty" yaml:"op,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type reportView struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Repository string        `json:"repository" yaml:"repository"`
	URL        string        `json:"url,omitempty" yaml:"url,omitempty"`
	Mode       string        `json:"mode" yaml:"mode"`
	Root       string        `json:"root" yaml:"root"`
	Author     string        `json:"author,omitempty" yaml:"author,omitempty"`
	Started    time.Time     `json:"started" yaml:"started"`
	Finished   time.Time     `json:"finished" yaml:"finished"`
	Summary    summaryView   `json:"summary" yaml:"summary"`
	Outcomes   []outcomeView `json:"outcomes" yaml:"outcomes"`
}

func newReportView(r *sync.Report) reportView {
	view := reportView{
		RunID:      r.RunID,
		Repository: r.Repository,
		URL:        r.URL,
		Mode:       string(r.Mode),
		Root:       r.Root,
		Author:     r.Author,
		Started:    r.Started,
		Finished:   r.Finished,
		Summary: summaryView{
			Files:     len(r.Outcomes),
			Created:   r.Count(sync.ActionCreated),
			Updated:   r.Count(sync.ActionUpdated),
			Skipped:   r.Count(sync.ActionSkippedIdentical),
			Failed:    r.Count(sync.ActionFailed),
			BytesSent: r.Bytes(),
		},
		Outcomes: make([]outcomeView, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		ov := outcomeView{Path: o.Path, Action: string(o.Action), Size: o.Size, Error: o.Error()}
		if o.Err != nil {
			ov.Op = string(o.Err.Op)
		}
		view.Outcomes = append(view.Outcomes, ov)
	}
	return view
}

func renderReport(w io.Writer, format outputFormat, r *sync.Report) error {
	if format != formatText {
		return writeStructured(w, format, newReportView(r))
	}

	fmt.Fprintf(w, "%s %s\n", bold.Render(r.Repository), lightGray.Render(r.URL))
	for _, o := range r.Outcomes {
		action := actionStyle(o.Action).Render(fmt.Sprintf("%-17s", o.Action))
		line := fmt.Sprintf("  %s %s", action, o.Path)
		switch {
		case o.Err != nil:
			line += "  " + red.Render(o.Err.Err.Error())
		case o.Action != sync.ActionSkippedIdentical:
			line += "  " + gray.Render(humanize.Bytes(uint64(o.Size)))
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, summaryLine(r))
	fmt.Fprintf(w, "%s %s\n", gray.Render("run"), r.RunID)
	return nil
}

func summaryLine(r *sync.Report) string {
	parts := []string{
		green.Render(fmt.Sprintf("%d created", r.Count(sync.ActionCreated))),
		cyan.Render(fmt.Sprintf("%d updated", r.Count(sync.ActionUpdated))),
		gray.Render(fmt.Sprintf("%d unchanged", r.Count(sync.ActionSkippedIdentical))),
	}
	failed := fmt.Sprintf("%d failed", r.Count(sync.ActionFailed))
	if r.Failed() {
		parts = append(parts, red.Render(failed))
	} else {
		parts = append(parts, gray.Render(failed))
	}
	return fmt.Sprintf("%s, %s written in %s",
		strings.Join(parts, ", "),
		humanize.Bytes(uint64(r.Bytes())),
		r.Duration().Round(time.Millisecond),
	)
}
