package pprofile

// Field numbers for the subset of the pprof profile.proto schema this
// package emits. Values match the upstream profile.proto (the same table
// cloudwego/goref forked into its pkg/proc/protobuf.go from
// runtime/pprof/protobuf.go).
const (
	fieldProfileSampleType    = 1
	fieldProfileSample        = 2
	fieldProfileLocation      = 4
	fieldProfileFunction      = 5
	fieldProfileStringTable   = 6
	fieldProfileTimeNanos     = 9
	fieldProfileDurationNanos = 10
	fieldProfilePeriodType    = 11
	fieldProfilePeriod        = 12

	fieldValueTypeType = 1
	fieldValueTypeUnit = 2

	fieldSampleLocationID = 1
	fieldSampleValue      = 2

	fieldLocationID   = 1
	fieldLocationLine = 4

	fieldLineFunctionID = 1
	fieldLineLine       = 2

	fieldFunctionID         = 1
	fieldFunctionName       = 2
	fieldFunctionSystemName = 3
	fieldFunctionFilename   = 4
	fieldFunctionStartLine  = 5
)

// ValueType names the unit pair a sample's values are measured in, e.g.
// ("samples", "count") or ("time", "microseconds").
type ValueType struct {
	TypeIdx int64
	UnitIdx int64
}

func (v ValueType) marshalTo(e *wireEncoder) {
	e.encodeInt64Opt(fieldValueTypeType, v.TypeIdx)
	e.encodeInt64Opt(fieldValueTypeUnit, v.UnitIdx)
}

// Sample is one leaf-to-root stack with its aligned values.
type Sample struct {
	LocationID []uint64
	Value      []int64
}

func (s *Sample) marshalTo(e *wireEncoder) {
	e.encodeUint64s(fieldSampleLocationID, s.LocationID)
	e.encodeInt64s(fieldSampleValue, s.Value)
}

// Line is a single (function, line) pair. This package only ever emits
// locations with exactly one Line, per spec.
type Line struct {
	FunctionID uint64
	Line       int64
}

func (l Line) marshalTo(e *wireEncoder) {
	e.encodeUint64Opt(fieldLineFunctionID, l.FunctionID)
	e.encodeInt64Opt(fieldLineLine, l.Line)
}

// Location is a unique call site: one 1-based ID and one Line.
type Location struct {
	ID   uint64
	Line Line
}

func (l *Location) marshalTo(e *wireEncoder) {
	e.encodeUint64Opt(fieldLocationID, l.ID)
	encodeMessage(e, fieldLocationLine, lineMsg{l.Line})
}

type lineMsg struct{ Line }

func (m lineMsg) marshalTo(e *wireEncoder) { m.Line.marshalTo(e) }

// Function is a unique (scriptId, name) pair, 1-based ID.
type Function struct {
	ID           uint64
	NameIdx      int64
	SystemNameIdx int64
	FilenameIdx  int64
	StartLine    int64
}

func (f *Function) marshalTo(e *wireEncoder) {
	e.encodeUint64Opt(fieldFunctionID, f.ID)
	e.encodeInt64Opt(fieldFunctionName, f.NameIdx)
	e.encodeInt64Opt(fieldFunctionSystemName, f.SystemNameIdx)
	e.encodeInt64Opt(fieldFunctionFilename, f.FilenameIdx)
	e.encodeInt64Opt(fieldFunctionStartLine, f.StartLine)
}

// Profile is the pprof message this package emits, reduced to the fields
// the core uses (see spec.md §3).
type Profile struct {
	SampleType []ValueType
	Sample     []*Sample
	Location   []*Location
	Function   []*Function
	StringTable []string

	TimeNanos     int64
	DurationNanos int64
	PeriodType    ValueType
	Period        int64
}

// valueTypeMsg adapts ValueType to wireMessage for fields that need a
// pointer receiver-free value type repeated.
type valueTypeMsg struct{ ValueType }

func (v valueTypeMsg) marshalTo(e *wireEncoder) { v.ValueType.marshalTo(e) }

// Marshal encodes the profile into pprof wire format (uncompressed).
func (p *Profile) Marshal() []byte {
	var e wireEncoder

	sampleTypes := make([]valueTypeMsg, len(p.SampleType))
	for i, st := range p.SampleType {
		sampleTypes[i] = valueTypeMsg{st}
	}
	encodeRepeatedMessage(&e, fieldProfileSampleType, sampleTypes)
	encodeRepeatedMessage(&e, fieldProfileSample, p.Sample)
	encodeRepeatedMessage(&e, fieldProfileLocation, p.Location)
	encodeRepeatedMessage(&e, fieldProfileFunction, p.Function)

	e.encodeStrings(fieldProfileStringTable, p.StringTable)

	e.encodeInt64Opt(fieldProfileTimeNanos, p.TimeNanos)
	e.encodeInt64Opt(fieldProfileDurationNanos, p.DurationNanos)
	encodeMessage(&e, fieldProfilePeriodType, valueTypeMsg{p.PeriodType})
	e.encodeInt64Opt(fieldProfilePeriod, p.Period)

	return e.bytes()
}
