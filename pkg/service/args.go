package service

import (
	"regexp"

	"haracho/pkg/client"
)

// ArgKind enumerates the value shapes an argument can take.
type ArgKind int

const (
	ArgString ArgKind = iota + 1
	ArgInt
	ArgDouble
	ArgUser
	ArgTextChannel
	ArgVoiceChannel
	ArgRegex
	ArgCustom
)

func (k ArgKind) String() string {
	switch k {
	case ArgString:
		return "string"
	case ArgInt:
		return "int"
	case ArgDouble:
		return "double"
	case ArgUser:
		return "user"
	case ArgTextChannel:
		return "text_channel"
	case ArgVoiceChannel:
		return "voice_channel"
	case ArgRegex:
		return "regex"
	case ArgCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ArgType describes how one token is validated and converted.
type ArgType struct {
	kind      ArgKind
	label     string
	pattern   *regexp.Regexp
	predicate func(string) bool
}

var (
	TypeString       = ArgType{kind: ArgString}
	TypeInt          = ArgType{kind: ArgInt}
	TypeDouble       = ArgType{kind: ArgDouble}
	TypeUser         = ArgType{kind: ArgUser}
	TypeTextChannel  = ArgType{kind: ArgTextChannel}
	TypeVoiceChannel = ArgType{kind: ArgVoiceChannel}
)

// TypeRegex accepts tokens matching pattern and keeps the submatches.
func TypeRegex(pattern *regexp.Regexp) ArgType {
	return ArgType{kind: ArgRegex, pattern: pattern}
}

// TypeCustom accepts tokens for which accept returns true. label names the
// type in usage strings.
func TypeCustom(label string, accept func(string) bool) ArgType {
	return ArgType{kind: ArgCustom, label: label, predicate: accept}
}

func (t ArgType) Kind() ArgKind {
	return t.kind
}

// Pattern returns the regular expression of a regex type, nil otherwise.
func (t ArgType) Pattern() *regexp.Regexp {
	return t.pattern
}

func (t ArgType) String() string {
	switch t.kind {
	case ArgRegex:
		if t.pattern != nil {
			return "regex(" + t.pattern.String() + ")"
		}
	case ArgCustom:
		if t.label != "" {
			return t.label
		}
	}
	return t.kind.String()
}

// ArgDescriptor declares one named input a handler expects.
type ArgDescriptor struct {
	Name        string
	Description string
	Type        ArgType
	Optional    bool
}

// ArgResult is one resolved argument. Only the field matching Kind is set;
// Present is false for an omitted optional argument.
type ArgResult struct {
	Name    string
	Kind    ArgKind
	Present bool
	Raw     string

	Text         string
	Int          int64
	Double       float64
	User         client.User
	TextChannel  client.TextChannel
	VoiceChannel client.VoiceChannel
	Match        []string
}
