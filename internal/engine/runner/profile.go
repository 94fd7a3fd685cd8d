package runner

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/playground/internal/engine/bindings"
	"github.com/GriffinCanCode/playground/internal/engine/console"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/transform"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Profile fixes what a controller's snippets receive: the transformer, the
// bound names, and whether results go to a render target
type Profile struct {
	Name        string
	Transformer transform.Transformer
	UI          bool
	bind        func(c *console.Console) []sandbox.Binding
}

// Bindings returns the ordered bindings for one run
func (p Profile) Bindings(c *console.Console) []sandbox.Binding {
	if p.bind == nil {
		return []sandbox.Binding{bindings.Console(c)}
	}
	return p.bind(c)
}

var (
	// ScriptProfile runs plain JavaScript with a console
	ScriptProfile = Profile{
		Name:        "script",
		Transformer: transform.Passthrough{},
		bind: func(c *console.Console) []sandbox.Binding {
			return []sandbox.Binding{bindings.Console(c)}
		},
	}

	// ReactProfile accepts JSX and renders elements
	ReactProfile = Profile{
		Name:        "react",
		Transformer: transform.NewJSX(),
		UI:          true,
		bind: func(c *console.Console) []sandbox.Binding {
			return []sandbox.Binding{bindings.Console(c), bindings.ReactBinding{}, bindings.DocumentBinding{}}
		},
	}

	// ReduxProfile adds a Redux store to ReactProfile
	ReduxProfile = Profile{
		Name:        "redux",
		Transformer: transform.NewJSX(),
		UI:          true,
		bind: func(c *console.Console) []sandbox.Binding {
			return []sandbox.Binding{bindings.Console(c), bindings.ReactBinding{}, bindings.DocumentBinding{}, bindings.ReduxBinding{}}
		},
	}
)

// Profiles lists the built-in profiles
func Profiles() []Profile {
	return []Profile{ScriptProfile, ReactProfile, ReduxProfile}
}

// LookupProfile finds a built-in profile by name. Empty selects script.
func LookupProfile(name string) (Profile, error) {
	if name == "" {
		return ScriptProfile, nil
	}
	for _, p := range Profiles() {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}
