package apiforms

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FormErrorKey is the default path segment used for errors raised by a
// form-wide clean hook. They are not attributable to a single field.
const FormErrorKey = "$body"

// constants for error codes produced by the built-in fields and validators
const (
	CodeRequired         = "required"
	CodeInvalid          = "invalid"
	CodeInvalidChoice    = "invalid_choice"
	CodeNotList          = "not_list"
	CodeNotDict          = "not_dict"
	CodeMinLength        = "min_length"
	CodeMaxLength        = "max_length"
	CodeMinValue         = "min_value"
	CodeMaxValue         = "max_value"
	CodeMaxDigits        = "max_digits"
	CodeMaxDecimalPlaces = "max_decimal_places"
	CodeMaxWholeDigits   = "max_whole_digits"
	CodeDuplicateKey     = "duplicate_key"
)

// Field kind constants. The population strategy registry resolves
// strategies by these names.
const (
	KindChar          = "CharField"
	KindEmail         = "EmailField"
	KindInteger       = "IntegerField"
	KindFloat         = "FloatField"
	KindDecimal       = "DecimalField"
	KindBoolean       = "BooleanField"
	KindDate          = "DateField"
	KindTime          = "TimeField"
	KindDateTime      = "DateTimeField"
	KindDuration      = "DurationField"
	KindEnum          = "EnumField"
	KindUUID          = "UUIDField"
	KindAny           = "AnyField"
	KindFieldList     = "FieldList"
	KindDictionary    = "DictionaryField"
	KindFormField     = "FormField"
	KindFormFieldList = "FormFieldList"
)

// Decoder name constants for built in decoders.
const (
	JSONDecoderName    = "json-gjson-decoder"
	MsgpackDecoderName = "msgpack-decoder"
	YAMLDecoderName    = "yaml-decoder"
)

// Mime Type constants for content types and encodings.
const (
	ContentTypeApplicationJSON    string = "application/json"
	ContentTypeApplicationMsgpack string = "application/msgpack"
	ContentTypeXMsgpack           string = "application/x-msgpack"
	ContentTypeApplicationYAML    string = "application/yaml"
	ContentTypeXYAML              string = "application/x-yaml"
	ContentTypeDelimiter                 = ";"
	ContentTypeParamDelimiter            = "="
)

// struct tag used by the assign population strategy
const (
	FormTagName    = "form"
	FormTagSkip    = "-"
	FormTagOmitNil = "omitnil"
)

// reflect.TypeOf constants for type checks
var (
	TimeType     = reflect.TypeOf(time.Time{})
	DurationType = reflect.TypeOf(time.Duration(0))
	UUIDType     = reflect.TypeOf(uuid.UUID{})
	DecimalType  = reflect.TypeOf(decimal.Decimal{})
)
