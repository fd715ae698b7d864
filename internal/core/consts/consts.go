package consts

type (
	EnvKey       = string
	DefaultValue = string
)
