package agegate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stroppy-io/gatedfetch/internal/domain/outcome"
)

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		wantOk  bool
		wantMsg string
	}{
		{name: "adult", age: 20, wantOk: true, wantMsg: "User is of age"},
		{name: "exactly threshold", age: 18, wantOk: true, wantMsg: "User is of age"},
		{name: "very old", age: 120, wantOk: true, wantMsg: "User is of age"},
		{name: "one below", age: 17, wantOk: false, wantMsg: "Age less than 18"},
		{name: "child", age: 12, wantOk: false, wantMsg: "Age less than 18"},
		{name: "zero", age: 0, wantOk: false, wantMsg: "Age less than 18"},
		{name: "negative", age: -5, wantOk: false, wantMsg: "Age less than 18"},
	}

	v := NewValidator(DefaultThreshold)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.age)
			require.Equal(t, tt.wantOk, res.IsOk())
			if tt.wantOk {
				require.Equal(t, outcome.KindOk, res.Kind)
				require.Equal(t, tt.wantMsg, res.Value)
				require.NoError(t, res.Err)
				return
			}
			require.Equal(t, outcome.KindValidation, res.Kind)
			require.EqualError(t, res.Err, tt.wantMsg)
			var verr *outcome.ValidationError
			require.ErrorAs(t, res.Err, &verr)
		})
	}
}

func TestValidator_AllAges(t *testing.T) {
	v := NewValidator(DefaultThreshold)
	for age := -10; age < 150; age++ {
		res := v.Validate(age)
		if age >= 18 {
			require.True(t, res.IsOk(), "age %d", age)
			require.Equal(t, OfAgeMessage, res.Value)
		} else {
			require.EqualError(t, res.Err, "Age less than 18", "age %d", age)
		}
	}
}

func TestValidator_CustomThreshold(t *testing.T) {
	v := NewValidator(21)

	require.True(t, v.Validate(21).IsOk())
	require.EqualError(t, v.Validate(20).Err, "Age less than 21")
}

func TestValidator_ZeroValue(t *testing.T) {
	var v *Validator

	require.Equal(t, DefaultThreshold, v.Threshold())
	require.True(t, v.Validate(18).IsOk())
	require.False(t, (&Validator{}).Validate(17).IsOk())
}

func TestValidator_FreshErrorPerCall(t *testing.T) {
	v := NewValidator(DefaultThreshold)

	first := v.Validate(1).Err
	second := v.Validate(1).Err

	require.NotSame(t, first, second)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.Error(t, (&Config{Threshold: -1}).Validate())
	require.EqualError(t, (&Config{Threshold: 0, Age: 20}).Validate(), "gate threshold must be positive, got 0")
	require.Error(t, (&Config{Threshold: 18, Age: -1}).Validate())
}
