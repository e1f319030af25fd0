package core

import (
	"errors"
	"slices"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrInvalidLength is returned when an encoded slice or map length is negative
// or larger than the remaining buffer.
var ErrInvalidLength = errors.New("invalid encoded length")

var (
	ProviderStatusMUS mus.Serializer[ProviderStatus] = providerStatusMUS{}
	RequestLogMUS     mus.Serializer[RequestLog]     = requestLogMUS{}
)

type providerStatusMUS struct{}

func (providerStatusMUS) Marshal(v ProviderStatus, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Retailer), bs)
	n += ord.String.Marshal(string(v.State), bs[n:])
	n += varint.Int.Marshal(v.Count, bs[n:])
	n += varint.Int64.Marshal(int64(v.Latency), bs[n:])
	n += ord.String.Marshal(v.Error, bs[n:])
	return
}

func (providerStatusMUS) Unmarshal(bs []byte) (v ProviderStatus, n int, err error) {
	d := decoder{bs: bs}
	v.Retailer = Retailer(read[string](&d, ord.String))
	v.State = ProviderState(read[string](&d, ord.String))
	v.Count = read[int](&d, varint.Int)
	v.Latency = time.Duration(read[int64](&d, varint.Int64))
	v.Error = read[string](&d, ord.String)
	return v, d.n, d.err
}

func (providerStatusMUS) Size(v ProviderStatus) (size int) {
	size = ord.String.Size(string(v.Retailer))
	size += ord.String.Size(string(v.State))
	size += varint.Int.Size(v.Count)
	size += varint.Int64.Size(int64(v.Latency))
	return size + ord.String.Size(v.Error)
}

func (s providerStatusMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type requestLogMUS struct{}

func (requestLogMUS) Marshal(v RequestLog, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.RequestID, bs[n:])
	n += ord.String.Marshal(v.Query, bs[n:])
	n += varint.Int.Marshal(v.Page, bs[n:])
	n += ord.String.Marshal(string(v.Market), bs[n:])
	n += ord.String.Marshal(string(v.Intent), bs[n:])
	n += ord.String.Marshal(v.IntentSource, bs[n:])

	n += varint.Int.Marshal(len(v.Providers), bs[n:])
	for _, p := range v.Providers {
		n += ProviderStatusMUS.Marshal(p, bs[n:])
	}

	n += varint.Int.Marshal(len(v.FraudRemoved), bs[n:])
	for _, k := range sortedKeys(v.FraudRemoved) {
		n += ord.String.Marshal(k, bs[n:])
		n += varint.Int.Marshal(v.FraudRemoved[k], bs[n:])
	}

	n += varint.Int.Marshal(v.AgentCalls, bs[n:])
	n += ord.Bool.Marshal(v.RelevanceApplied, bs[n:])
	n += ord.Bool.Marshal(v.Refined, bs[n:])
	n += ord.Bool.Marshal(v.FromCache, bs[n:])
	n += varint.Int.Marshal(v.ResultCount, bs[n:])

	n += varint.Int.Marshal(len(v.StageTimings), bs[n:])
	for _, k := range sortedKeys(v.StageTimings) {
		n += ord.String.Marshal(k, bs[n:])
		n += raw.Float64.Marshal(v.StageTimings[k], bs[n:])
	}

	n += varint.Int64.Marshal(int64(v.Duration), bs[n:])
	n += varint.Int64.Marshal(v.Timestamp.Unix(), bs[n:])
	n += varint.Int.Marshal(v.Timestamp.Nanosecond(), bs[n:])
	return
}

func (requestLogMUS) Unmarshal(bs []byte) (v RequestLog, n int, err error) {
	d := decoder{bs: bs}
	v.Id = ID(read[uint64](&d, varint.Uint64))
	v.RequestID = read[string](&d, ord.String)
	v.Query = read[string](&d, ord.String)
	v.Page = read[int](&d, varint.Int)
	v.Market = Market(read[string](&d, ord.String))
	v.Intent = Intent(read[string](&d, ord.String))
	v.IntentSource = read[string](&d, ord.String)

	if length := d.length(); length > 0 {
		v.Providers = make([]ProviderStatus, length)
		for i := range v.Providers {
			v.Providers[i] = read[ProviderStatus](&d, ProviderStatusMUS)
		}
	}
	if length := d.length(); length > 0 {
		v.FraudRemoved = make(map[string]int, length)
		for range length {
			k := read[string](&d, ord.String)
			v.FraudRemoved[k] = read[int](&d, varint.Int)
		}
	}

	v.AgentCalls = read[int](&d, varint.Int)
	v.RelevanceApplied = read[bool](&d, ord.Bool)
	v.Refined = read[bool](&d, ord.Bool)
	v.FromCache = read[bool](&d, ord.Bool)
	v.ResultCount = read[int](&d, varint.Int)

	if length := d.length(); length > 0 {
		v.StageTimings = make(map[string]float64, length)
		for range length {
			k := read[string](&d, ord.String)
			v.StageTimings[k] = read[float64](&d, raw.Float64)
		}
	}

	v.Duration = time.Duration(read[int64](&d, varint.Int64))
	sec := read[int64](&d, varint.Int64)
	nsec := read[int](&d, varint.Int)
	if d.err != nil {
		return RequestLog{}, d.n, d.err
	}
	v.Timestamp = time.Unix(sec, int64(nsec)).UTC()
	return v, d.n, nil
}

func (requestLogMUS) Size(v RequestLog) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.RequestID)
	size += ord.String.Size(v.Query)
	size += varint.Int.Size(v.Page)
	size += ord.String.Size(string(v.Market))
	size += ord.String.Size(string(v.Intent))
	size += ord.String.Size(v.IntentSource)

	size += varint.Int.Size(len(v.Providers))
	for _, p := range v.Providers {
		size += ProviderStatusMUS.Size(p)
	}
	size += varint.Int.Size(len(v.FraudRemoved))
	for k, c := range v.FraudRemoved {
		size += ord.String.Size(k) + varint.Int.Size(c)
	}

	size += varint.Int.Size(v.AgentCalls)
	size += ord.Bool.Size(v.RelevanceApplied)
	size += ord.Bool.Size(v.Refined)
	size += ord.Bool.Size(v.FromCache)
	size += varint.Int.Size(v.ResultCount)

	size += varint.Int.Size(len(v.StageTimings))
	for k, ms := range v.StageTimings {
		size += ord.String.Size(k) + raw.Float64.Size(ms)
	}

	size += varint.Int64.Size(int64(v.Duration))
	size += varint.Int64.Size(v.Timestamp.Unix())
	return size + varint.Int.Size(v.Timestamp.Nanosecond())
}

func (s requestLogMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// decoder walks a buffer field by field and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func read[T any](d *decoder, ser mus.Serializer[T]) (v T) {
	if d.err != nil {
		return v
	}
	var n int
	v, n, d.err = ser.Unmarshal(d.bs[d.n:])
	d.n += n
	return v
}

// length reads a slice or map length. Failures leave zero so no loop runs.
func (d *decoder) length() int {
	l := read[int](d, varint.Int)
	if d.err == nil && (l < 0 || l > len(d.bs)-d.n) {
		d.err = ErrInvalidLength
	}
	if d.err != nil {
		return 0
	}
	return l
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
