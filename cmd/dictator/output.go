// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/plugindictator/dictator/internal/dictator"
)

// Output formats.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatIDs   = "ids"
	formatText  = "text"
)

// parseFields splits a comma-separated field list, keeping known fields in
// the given order. Empty or "all" selects every field.
func parseFields(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" || list == "all" {
		return dictator.Fields(), nil
	}
	var fields []string
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if !slices.Contains(dictator.Fields(), f) {
			return nil, oops.Code("INVALID_FIELD").With("field", f).
				Errorf("unknown field %q, want one of %s", f, strings.Join(dictator.Fields(), ", "))
		}
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// writeRows renders rows in format, showing only fields.
func writeRows(w io.Writer, rows []dictator.Row, fields []string, format string) error {
	switch format {
	case formatTable:
		return writeTable(w, rows, fields)
	case formatCSV:
		return writeCSV(w, rows, fields)
	case formatJSON:
		return writeJSON(w, orderedRows(rows, fields))
	case formatYAML:
		return writeYAML(w, yamlRows(rows, fields))
	case formatIDs:
		slugs := make([]string, len(rows))
		for i, r := range rows {
			slugs[i] = r.Slug
		}
		_, err := fmt.Fprintln(w, strings.Join(slugs, " "))
		return err
	default:
		return oops.Code("INVALID_FORMAT").With("format", format).
			Errorf("format must be table, csv, json, yaml or ids, got %q", format)
	}
}

func rowValues(r dictator.Row, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i], _ = r.Field(f)
	}
	return out
}

func writeTable(w io.Writer, rows []dictator.Row, fields []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(fields, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(rowValues(r, fields), "\t"))
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, rows []dictator.Row, fields []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fields); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(rowValues(r, fields)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func orderedRows(rows []dictator.Row, fields []string) []*orderedmap.OrderedMap[string, string] {
	out := make([]*orderedmap.OrderedMap[string, string], len(rows))
	for i, r := range rows {
		m := orderedmap.New[string, string]()
		for _, f := range fields {
			v, _ := r.Field(f)
			m.Set(f, v)
		}
		out[i] = m
	}
	return out
}

func yamlRows(rows []dictator.Row, fields []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range fields {
			v, _ := r.Field(f)
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v},
			)
		}
		seq.Content = append(seq.Content, m)
	}
	return seq
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return oops.Code("OUTPUT_FAILED").With("format", formatJSON).Wrap(err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return oops.Code("OUTPUT_FAILED").With("format", formatYAML).Wrap(err)
	}
	return enc.Close()
}
