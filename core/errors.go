// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrUnknownDocumentType indicates an unrecognized document type label.
	ErrUnknownDocumentType = errors.New("unknown document type")

	// ErrUnknownState indicates an unrecognized processing state.
	ErrUnknownState = errors.New("unknown processing state")

	// ErrEmptyFilename indicates the Filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrMissingErrorDetail indicates an ERROR document without a detail message.
	ErrMissingErrorDetail = errors.New("error state requires an error detail")

	// ErrInvalidTransition indicates a disallowed state transition.
	ErrInvalidTransition = errors.New("invalid state transition")
)
