package service

import "strings"

// Descriptor is a named, described unit of functionality and the conditions
// that launch it. It is never mutated after Build.
type Descriptor struct {
	name        string
	description string
	timings     []*Condition
}

func (d *Descriptor) Name() string {
	return d.name
}

func (d *Descriptor) Description() string {
	return d.description
}

// Timings returns the launch conditions in declaration order.
func (d *Descriptor) Timings() []*Condition {
	return append([]*Condition(nil), d.timings...)
}

// Builder accumulates a Descriptor.
type Builder struct {
	name        string
	description string
	timings     []*Condition
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// Timing binds one more built condition to the service.
func (b *Builder) Timing(c *Condition) *Builder {
	b.timings = append(b.timings, c)
	return b
}

// Build fails when the name, description or every timing is missing.
func (b *Builder) Build() (*Descriptor, error) {
	if strings.TrimSpace(b.name) == "" {
		return nil, &BuildError{Err: ErrMissingName}
	}
	if strings.TrimSpace(b.description) == "" {
		return nil, &BuildError{Service: b.name, Err: ErrMissingDescription}
	}
	if len(b.timings) == 0 {
		return nil, &BuildError{Service: b.name, Err: ErrNoTimings}
	}
	for _, c := range b.timings {
		if c == nil {
			return nil, &BuildError{Service: b.name, Err: ErrNilTiming}
		}
	}

	return &Descriptor{
		name:        b.name,
		description: b.description,
		timings:     append([]*Condition(nil), b.timings...),
	}, nil
}

// MustBuild is Build for package-level declarations; it panics on error.
func (b *Builder) MustBuild() *Descriptor {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
