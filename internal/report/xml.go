// Package report renders run results for the three audiences the
// service answers to: the ESI agent protocol (XML responses), terminal
// users (plain text), and operators (the coverage chart page).
package report

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/granule-data/maskfill/internal/maskfill"
)

// ExceptionCode is an ESI agent exception code.
type ExceptionCode string

const (
	InvalidParameterValue ExceptionCode = "InvalidParameterValue"
	MissingParameterValue ExceptionCode = "MissingParameterValue"
	NoMatchingData        ExceptionCode = "NoMatchingData"
	InternalError         ExceptionCode = "InternalError"
)

// ExitStatus returns the process exit status the agent protocol assigns
// to the code.
func (c ExceptionCode) ExitStatus() int {
	switch c {
	case InvalidParameterValue:
		return 1
	case MissingParameterValue:
		return 2
	case NoMatchingData:
		return 3
	default:
		return 4
	}
}

// Classify maps an error to its agent exception code. Parameter errors
// keep their identity through wrapping; every other failure is internal
// as far as the protocol is concerned.
func Classify(err error) ExceptionCode {
	var pe *maskfill.ParameterError
	if errors.As(err, &pe) {
		if pe.Missing {
			return MissingParameterValue
		}
		return InvalidParameterValue
	}
	return InternalError
}

const (
	responseNS = "http://eosdis.nasa.gov/esi/rsp/i"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// agentResponse is the success envelope. Element names and namespaces
// follow the ESI agent response schema; the prefixed tag names are
// deliberate, encoding/xml writes them through literally.
type agentResponse struct {
	XMLName      xml.Name `xml:"ns2:agentResponse"`
	NS           string   `xml:"xmlns:ns2,attr"`
	DownloadURLs []string `xml:"downloadUrls>downloadUrl"`
	Message      string   `xml:"processInfo>message"`
}

type agentException struct {
	XMLName        xml.Name `xml:"iesi:Exception"`
	NSIESI         string   `xml:"xmlns:iesi,attr"`
	NSXSI          string   `xml:"xmlns:xsi,attr"`
	NSESI          string   `xml:"xmlns:esi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	Code           string   `xml:"Code"`
	Message        string   `xml:"Message"`
}

// SuccessXML renders the agent success response: the download URL for
// every produced output plus a process summary.
func SuccessXML(regionPath string, outcomes []maskfill.Outcome) []byte {
	inputs := make([]string, 0, len(outcomes))
	outputs := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		inputs = append(inputs, o.Input)
		if o.Output != "" {
			outputs = append(outputs, o.Output)
		}
	}
	msg := fmt.Sprintf("INFILE = %s, SHAPEFILE = %s", strings.Join(inputs, ", "), regionPath)
	if len(outputs) > 0 {
		msg += fmt.Sprintf(", OUTFILE = %s", strings.Join(outputs, ", "))
	}
	return marshal(agentResponse{
		NS:           responseNS,
		DownloadURLs: outputs,
		Message:      msg,
	})
}

// ExceptionXML renders the agent exception response for code. The
// message keeps the failure text first; the trailing status line is
// part of the protocol's message convention.
func ExceptionXML(code ExceptionCode, message string) []byte {
	if message == "" {
		message = defaultMessage(code)
	}
	return marshal(agentException{
		NSIESI:         responseNS,
		NSXSI:          "http://www.w3.org/2001/XMLSchema-instance",
		NSESI:          "http://eosdis.nasa.gov/esi/rsp",
		SchemaLocation: responseNS + " http://newsroom.gsfc.nasa.gov/esi/8.1/schemas/ESIAgentResponseInternal.xsd",
		Code:           string(code),
		Message:        fmt.Sprintf("%s\nmask fill failed with code %d", message, code.ExitStatus()),
	})
}

func defaultMessage(code ExceptionCode) string {
	switch code {
	case InvalidParameterValue:
		return "Incorrect parameter specified for given dataset(s)."
	case MissingParameterValue:
		return "No parameter value(s) specified for given dataset(s)."
	case NoMatchingData:
		return "No data found that matched the subset constraints."
	default:
		return "An internal error occurred."
	}
}

func marshal(v any) []byte {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		// Only reachable with unmarshalable field types, which the
		// response structs do not have.
		panic(err)
	}
	return append([]byte(xmlHeader), append(body, '\n')...)
}

// AgentXML renders the agent response for a completed run and reports
// the process exit status that goes with it. A run-level error renders
// as the exception its classification demands; per-file failures are
// internal errors carrying every failure in the message; a run whose
// region touched no cell of any input reports NoMatchingData. Only a
// run where every file produced its product exits zero.
func AgentXML(regionPath string, outcomes []maskfill.Outcome, runErr error) ([]byte, int) {
	if runErr != nil {
		code := Classify(runErr)
		return ExceptionXML(code, runErr.Error()), code.ExitStatus()
	}
	if maskfill.Failed(outcomes) > 0 {
		return ExceptionXML(InternalError, failureMessage(outcomes)), InternalError.ExitStatus()
	}
	if allOutsideRegion(outcomes) {
		msg := fmt.Sprintf("region %s does not intersect any cell of the given dataset(s)", regionPath)
		return ExceptionXML(NoMatchingData, msg), NoMatchingData.ExitStatus()
	}
	return SuccessXML(regionPath, outcomes), 0
}

func failureMessage(outcomes []maskfill.Outcome) string {
	var lines []string
	produced := 0
	for _, o := range outcomes {
		if o.Err != nil {
			lines = append(lines, o.Err.Error())
		} else if o.Output != "" {
			produced++
		}
	}
	msg := strings.Join(lines, "\n")
	if produced > 0 {
		msg += fmt.Sprintf("\n%d file(s) completed before the failure(s); their outputs were kept", produced)
	}
	return msg
}

// allOutsideRegion reports whether every file in a non-empty batch saw
// zero coverage, meaning every product is pure fill.
func allOutsideRegion(outcomes []maskfill.Outcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if o.Coverage > 0 {
			return false
		}
	}
	return true
}
