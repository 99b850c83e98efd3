// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"errors"
	"fmt"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
)

var ErrCancelled = errors.New("registration cancelled")

// UploadError is a failed binary upload. With File empty it means no data
// file of the set could be uploaded.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
	return fmt.Sprintf("upload of %s failed: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// remoteMessage keeps the server body verbatim and tells transport failures apart.
func remoteMessage(err error) string {
	var he *config.HTTPError
	if errors.As(err, &he) && len(he.Body) > 0 {
		return string(he.Body)
	}
	return err.Error()
}

// RemoteValidationError is a rejected validation-only call.
type RemoteValidationError struct {
	Err error
}

func (e *RemoteValidationError) Error() string { return remoteMessage(e.Err) }
func (e *RemoteValidationError) Unwrap() error { return e.Err }
func (e *RemoteValidationError) Kind() string  { return "validation" }

// RemoteSubmitError is a rejected or unanswered create-entry call.
type RemoteSubmitError struct {
	Err error
}

func (e *RemoteSubmitError) Error() string { return remoteMessage(e.Err) }
func (e *RemoteSubmitError) Unwrap() error { return e.Err }
func (e *RemoteSubmitError) Kind() string  { return "post" }

// StatusCode returns the HTTP status behind err, 0 for transport failures.
func StatusCode(err error) int {
	var he *config.HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
