// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cliUtils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Fantom-foundation/Veritas/go/ct/harness"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
)

// ExportFailure prints the given failure to out and stores the shrunk and
// the original sequence as JSON files in dir. If dir is empty, a new
// temporary directory is created. The path of the shrunk sequence is
// returned; it can be replayed using the regression test infrastructure.
func ExportFailure(out io.Writer, failure *harness.Failure, dir string) (string, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "veritas_issues_*")
		if err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	seq := failure.Sequence
	fmt.Fprintf(out, "----------------------------\n")
	fmt.Fprintf(out, "%v\n", failure.Err)
	fmt.Fprintf(out, "Shrunk sequence %d from %d to %d actions:\n", seq.Index, len(failure.Original), len(seq.Actions))
	encoded, err := st.MarshalSequenceJSON(seq)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "%s\n", encoded)

	original := seq.Clone()
	original.Actions = st.CloneActions(failure.Original)
	originalPath := filepath.Join(dir, fmt.Sprintf("sequence_%06d_original.json", seq.Index))
	if err := st.ExportSequenceJSON(original, originalPath); err != nil {
		return "", fmt.Errorf("failed to dump sequence: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("sequence_%06d.json", seq.Index))
	if err := st.ExportSequenceJSON(seq, path); err != nil {
		return "", fmt.Errorf("failed to dump sequence: %w", err)
	}
	fmt.Fprintf(out, "Sequence dumped to %s\n", path)
	return path, nil
}
