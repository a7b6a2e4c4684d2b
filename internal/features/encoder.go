// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package features

import (
	"bytes"
	"encoding/gob"
	"sort"
)

// SentinelCode is returned by Encode for labels that were not fitted. It is
// also the code of the smallest fitted label, so callers that need to tell
// the two apart use Lookup.
const SentinelCode = 0

// Encoder maps categorical labels to integer codes. Codes are the positions
// of the labels in sorted order, so fitting the same label set always yields
// the same mapping. An Encoder is read-only after Fit and safe for concurrent
// use.
type Encoder struct {
	name    string
	classes []string
	index   map[string]int
}

// NewEncoder returns an unfitted encoder for the named column.
func NewEncoder(name string) *Encoder {
	return &Encoder{name: name, index: map[string]int{}}
}

// Fit replaces the mapping with one built from the distinct labels.
func (e *Encoder) Fit(labels []string) *Encoder {
	seen := make(map[string]struct{}, len(labels))
	classes := make([]string, 0)
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		classes = append(classes, l)
	}
	sort.Strings(classes)

	e.classes = classes
	e.index = buildIndex(classes)
	return e
}

// Name returns the column the encoder was fitted for.
func (e *Encoder) Name() string { return e.name }

// Len returns the number of known labels.
func (e *Encoder) Len() int { return len(e.classes) }

// Lookup returns the code of label and whether it was fitted.
func (e *Encoder) Lookup(label string) (int, bool) {
	code, ok := e.index[label]
	return code, ok
}

// Encode returns the code of label, or SentinelCode when label was not fitted.
func (e *Encoder) Encode(label string) int {
	if code, ok := e.index[label]; ok {
		return code
	}
	return SentinelCode
}

// Decode returns the label for code.
func (e *Encoder) Decode(code int) (string, bool) {
	if code < 0 || code >= len(e.classes) {
		return "", false
	}
	return e.classes[code], true
}

// Classes returns a copy of the fitted labels in code order.
func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func buildIndex(classes []string) map[string]int {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return idx
}

type encoderState struct {
	Name    string
	Classes []string
}

// GobEncode implements gob.GobEncoder.
func (e *Encoder) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(encoderState{Name: e.name, Classes: e.classes})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder and rebuilds the lookup index.
func (e *Encoder) GobDecode(data []byte) error {
	var st encoderState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}
	e.name = st.Name
	e.classes = st.Classes
	e.index = buildIndex(st.Classes)
	return nil
}
