package httpvalue

const (
	Plain    = "text/plain"
	JSON     = "application/json"
	Protobuf = "application/x-protobuf"
)

const (
	CharsetUTF8 = "charset=utf-8"

	charsetSuffix = "; " + CharsetUTF8

	PlainUTF8 = Plain + charsetSuffix
	JsonUTF8  = JSON + charsetSuffix
)
