package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ssargent/stfkit/pkg/document"
	"github.com/ssargent/stfkit/pkg/stf"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD580"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
)

// openDocument opens the table at path. With create set, a missing file
// gives an empty document that saves to path.
func openDocument(e *env, path string, create bool) (*document.Document, error) {
	opts := documentOptions(e)
	doc, err := document.Open(path, opts...)
	if err == nil {
		return doc, nil
	}
	if !create || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	doc = document.New(nil, opts...)
	if err := doc.SaveAs(path); err != nil {
		return nil, err
	}
	return doc, nil
}

func documentOptions(e *env) []document.Option {
	return []document.Option{
		document.WithLogger(e.logger),
		document.WithNewEntryPrefix(e.cfg.Editor.NewEntryPrefix),
	}
}

// readTable reads and decodes an STF file.
func readTable(codec *stf.Codec, path string) (*stf.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return t, nil
}

// formatFor picks the view format from an explicit flag or a file name.
func formatFor(flag, path string) (string, error) {
	if flag != "" {
		switch strings.ToLower(flag) {
		case formatJSON:
			return formatJSON, nil
		case formatYAML, "yml":
			return formatYAML, nil
		case formatTable:
			return formatTable, nil
		}
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	default:
		return formatYAML, nil
	}
}

// writeValue writes v as JSON or YAML.
func writeValue(w io.Writer, v interface{}, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q cannot be used here", format)
}

// readView parses a JSON or YAML table view.
func readView(data []byte, format string) (stf.TableView, error) {
	var v stf.TableView
	var err error
	switch format {
	case formatJSON:
		err = json.Unmarshal(data, &v)
	default:
		err = yaml.Unmarshal(data, &v)
	}
	if err != nil {
		return stf.TableView{}, fmt.Errorf("failed to parse %s: %w", format, err)
	}
	return v, nil
}

// renderTable draws the entries as a bordered table.
func renderTable(t *stf.Table) string {
	rows := make([][]string, 0, len(t.Entries))
	for i, e := range t.Entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), printable(e.ID), printable(e.Value.String())})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("#", "ID", "Value").
		Rows(rows...)

	return fmt.Sprintf("version %d, next uid %d, %d entries\n%s\n", t.Version, t.NextUID, len(t.Entries), tbl.String())
}

func printable(s string) string {
	return strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(s)
}
