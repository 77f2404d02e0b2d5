package internal

import (
	"fmt"

	"github.com/lychee-technology/chartpreset"
)

// MaterializeEncoding rewrites every channel's field from a variable name to
// the column it resolved to.
//
// The output has the same channels in the same order. Channel properties
// other than field are deep-copied unchanged. A field naming an unresolved
// variable, or not a string at all, is dropped unless keepUnresolved is set,
// in which case it is kept verbatim. A null channel becomes an empty one.
func MaterializeEncoding(encoding *chartpreset.Object, resolved *chartpreset.ResolvedColumns, keepUnresolved bool) (*chartpreset.Object, error) {
	out := chartpreset.NewObject()
	var err error

	encoding.Each(func(channelName string, value any) bool {
		if value == nil {
			out.Set(channelName, chartpreset.NewObject())
			return true
		}
		channel, ok := value.(*chartpreset.Object)
		if !ok {
			err = chartpreset.NewMalformedPresetError("", fmt.Sprintf("encoding channel must be an object, got %T", value)).
				WithField(chartpreset.KeyEncoding + "." + channelName)
			return false
		}
		out.Set(channelName, materializeChannel(channel, resolved, keepUnresolved))
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func materializeChannel(channel *chartpreset.Object, resolved *chartpreset.ResolvedColumns, keepUnresolved bool) *chartpreset.Object {
	out := channel.Clone()
	raw, present := out.Get(chartpreset.KeyField)
	if !present {
		return out
	}

	if variable, ok := raw.(string); ok {
		if column, found := resolved.Get(variable); found {
			out.Set(chartpreset.KeyField, column)
			return out
		}
	}
	if !keepUnresolved {
		out.Delete(chartpreset.KeyField)
	}
	return out
}
