package outcome

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOk(t *testing.T) {
	o := Ok("User is of age")

	require.True(t, o.IsOk())
	value, err := o.Unpack()
	require.NoError(t, err)
	require.Equal(t, "User is of age", value)
}

func TestInvalid(t *testing.T) {
	verr := NewAgeError(18)
	o := Invalid[string](verr)

	require.False(t, o.IsOk())
	require.Equal(t, KindValidation, o.Kind)
	_, err := o.Unpack()
	require.EqualError(t, err, "Age less than 18")

	var target *ValidationError
	require.ErrorAs(t, err, &target)
	require.Same(t, verr, target)
}

func TestTransport_PreservesMessage(t *testing.T) {
	var v any
	decodeErr := json.Unmarshal([]byte("<html>"), &v)
	require.Error(t, decodeErr)

	o := Transport[int](&TransportError{Op: OpDecode, Err: decodeErr})
	_, err := o.Unpack()

	require.Equal(t, KindTransport, o.Kind)
	require.Equal(t, decodeErr.Error(), err.Error())
	require.ErrorIs(t, err, decodeErr)
	var syntaxErr *json.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
}

func TestFail_KeepsKindAndError(t *testing.T) {
	verr := NewAgeError(21)
	src := Invalid[string](verr)

	dst := Fail[int](src)

	require.Equal(t, KindValidation, dst.Kind)
	require.Same(t, verr, dst.Err)
	require.Zero(t, dst.Value)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "ok", KindOk.String())
	require.Equal(t, "validation", KindValidation.String())
	require.Equal(t, "transport", KindTransport.String())
	require.Equal(t, "kind(9)", Kind(9).String())
}
