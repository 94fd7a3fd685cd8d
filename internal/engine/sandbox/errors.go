package sandbox

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/engine/console"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// HostPanic is a Go panic raised inside a host function during a run
type HostPanic struct {
	Value interface{}
}

func (p *HostPanic) Error() string {
	return fmt.Sprintf("host panic: %v", p.Value)
}

var parserPosition = regexp.MustCompile(`Line (\d+):(\d+) (.*)$`)

// executionError converts anything a run can fail with. header is the
// length of the wrapper text preceding the body on line 1.
func executionError(vm *goja.Runtime, err error, header int) *types.ExecutionError {
	var (
		exception *goja.Exception
		interrupt *goja.InterruptedError
		syntax    *goja.CompilerSyntaxError
		execErr   *types.ExecutionError
		hostPanic *HostPanic
	)

	switch {
	case errors.As(err, &interrupt):
		return types.NewExecutionError(types.PhaseExecute, "InterruptedError", fmt.Sprint(interrupt.Value()))

	case errors.As(err, &exception):
		ee := thrown(vm, exception.Value())
		for _, frame := range exception.Stack() {
			if frame.SrcName() != scriptName {
				continue
			}
			pos := frame.Position()
			ee.Line, ee.Column = adjust(pos.Line, pos.Column, header)
			break
		}
		return ee

	case errors.As(err, &syntax):
		ee := types.NewExecutionError(types.PhaseExecute, "SyntaxError", syntax.Message)
		if m := parserPosition.FindStringSubmatch(syntax.Message); m != nil {
			line, _ := strconv.Atoi(m[1])
			col, _ := strconv.Atoi(m[2])
			ee.Line, ee.Column = adjust(line, col, header)
			ee.Message = m[3]
		}
		return ee

	case errors.As(err, &execErr):
		cp := *execErr
		cp.Phase = types.PhaseExecute
		return &cp

	case errors.As(err, &hostPanic):
		return types.NewExecutionError(types.PhaseExecute, "InternalError", fmt.Sprint(hostPanic.Value))
	}

	return types.NewExecutionError(types.PhaseExecute, "", err.Error())
}

// thrown describes a thrown JS value. Error objects use their name and
// message properties, anything else its display form.
func thrown(vm *goja.Runtime, v goja.Value) *types.ExecutionError {
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Error" {
		name, _ := property(vm, obj, "name")
		msg, _ := property(vm, obj, "message")
		return types.NewExecutionError(types.PhaseExecute, name, msg)
	}
	return types.NewExecutionError(types.PhaseExecute, "", console.FormatValue(vm, v))
}

func property(vm *goja.Runtime, obj *goja.Object, key string) (s string, ok bool) {
	ex := vm.Try(func() {
		v := obj.Get(key)
		if v == nil || goja.IsUndefined(v) {
			return
		}
		s = v.String()
		ok = true
	})
	return s, ex == nil && ok
}

func adjust(line, col, header int) (int, int) {
	if line == 1 {
		col -= header
		if col < 1 {
			col = 1
		}
	}
	return line, col
}
