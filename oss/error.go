// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ValidationError reports an invariant violation in a caller-provided value
// (bucket name, endpoint, object path, ...). It never arises from server
// input.
type ValidationError struct {
	Kind   string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("oss: invalid %s %q: %s", e.Kind, e.Value, e.Reason)
}

// SignError reports a failure while computing the Authorization header or a
// presigned URL.
type SignError struct {
	Op     string
	Reason string
}

func (e *SignError) Error() string {
	return fmt.Sprintf("oss: sign %s: %s", e.Op, e.Reason)
}

// ProtocolError reports a successful HTTP response that omits a header or
// field the protocol requires.
type ProtocolError struct {
	Op      string
	Missing string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("oss: %s: response missing %s", e.Op, e.Missing)
}

// Multipart sentinels.
var (
	ErrNoUploadID            = errors.New("oss: multipart operation before initiate, no upload id")
	ErrUploadCompleted       = errors.New("oss: multipart upload already completed")
	ErrOverflowMaxPartsCount = errors.New("oss: multipart upload exceeds 10000 parts")
	ErrOverflowPartSize      = errors.New("oss: part size out of range [100KiB, 5GiB]")
)

// ServiceError contains fields of the error response from the OSS REST API.
type ServiceError struct {
	XMLName    xml.Name `xml:"Error"`
	Code       string   `xml:"Code"`      // The error code returned from OSS to the caller
	Message    string   `xml:"Message"`   // The detail error message from OSS
	RequestID  string   `xml:"RequestId"` // The UUID used to uniquely identify the request
	HostID     string   `xml:"HostId"`    // The OSS server cluster's Id
	Endpoint   string   `xml:"Endpoint"`
	Ec         string   `xml:"EC"`
	RawMessage string   // The raw messages from OSS
	StatusCode int      // HTTP status code
}

// Error implements interface error
func (e *ServiceError) Error() string {
	errorMessage := fmt.Sprintf("oss: service returned error: StatusCode=%d, ErrorCode=%s, ErrorMessage=\"%s\", RequestId=%s", e.StatusCode, e.Code, e.Message, e.RequestID)
	if len(e.Endpoint) > 0 {
		errorMessage = fmt.Sprintf("%s, Endpoint=%s", errorMessage, e.Endpoint)
	}
	if len(e.Ec) > 0 {
		errorMessage = fmt.Sprintf("%s, Ec=%s", errorMessage, e.Ec)
	}
	return errorMessage
}

// undefinedCode is reported when a non-success response carries no parseable
// <Error> document.
const undefinedCode = "Undefined"

func readResponseBody(resp *http.Response) ([]byte, error) {
	out, err := io.ReadAll(resp.Body)
	if err == io.EOF {
		err = nil
	}
	return out, err
}

func serviceErrFromXML(body []byte, statusCode int, requestID string) (*ServiceError, error) {
	var se ServiceError
	if err := xml.Unmarshal(body, &se); err != nil {
		return nil, err
	}
	if len(se.Code) == 0 {
		se.Code = undefinedCode
	}
	se.StatusCode = statusCode
	if len(se.RequestID) == 0 {
		se.RequestID = requestID
	}
	se.RawMessage = string(body)
	return &se, nil
}

// readServiceError turns a non-success response into a *ServiceError. Some
// deployments move the error document into the X-Oss-Err header on HEAD
// responses, base64 encoded.
func readServiceError(resp *http.Response) error {
	b, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("oss: read error response: %w", err)
	}
	if len(b) == 0 && len(resp.Header.Get("X-Oss-Err")) != 0 {
		if e, err := base64.StdEncoding.DecodeString(resp.Header.Get("X-Oss-Err")); err == nil {
			b = e
		}
	}
	if len(b) > 0 {
		if se, err := serviceErrFromXML(b, resp.StatusCode, resp.Header.Get("X-Oss-Request-Id")); err == nil {
			return se
		}
	}
	return &ServiceError{
		StatusCode: resp.StatusCode,
		Code:       undefinedCode,
		RequestID:  resp.Header.Get("X-Oss-Request-Id"),
		Ec:         resp.Header.Get("X-Oss-Ec"),
		RawMessage: string(b),
	}
}
