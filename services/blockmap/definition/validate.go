// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package definition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for record handling.
var (
	// ErrMalformedRecord is returned for a record that cannot be turned into a
	// usable BlockDefinition. Callers log and skip such records.
	ErrMalformedRecord = errors.New("malformed block definition")

	// ErrNotMapping is returned when a decoded document is not a mapping.
	ErrNotMapping = errors.New("record is not a mapping")
)

// recordValidate checks struct tags on BlockDefinition.
var recordValidate = validator.New()

// Validate reports whether a normalized record can be placed in the graph.
//
// # Description
//
// A record is rejected when any placement segment is empty or contains the
// path separator, since either would break one-node-per-path identity.
//
// # Outputs
//
//   - error: nil for a usable record, otherwise wraps ErrMalformedRecord and
//     lists the offending fields.
func Validate(def BlockDefinition) error {
	err := recordValidate.Struct(def)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s: invalid %s", ErrMalformedRecord, recordLabel(def), strings.Join(fields, ", "))
}

func recordLabel(def BlockDefinition) string {
	if def.FilePath != "" {
		return def.FilePath
	}
	return JoinPath(def.FullPath(false))
}
