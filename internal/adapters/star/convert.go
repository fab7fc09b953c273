package star

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/zerr"
)

// toStarlark converts a Go value to its Starlark counterpart.
func toStarlark(v any) (starlark.Value, error) {
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return x, nil
	case bool:
		return starlark.Bool(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int8:
		return starlark.MakeInt64(int64(x)), nil
	case int16:
		return starlark.MakeInt64(int64(x)), nil
	case int32:
		return starlark.MakeInt64(int64(x)), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case uint:
		return starlark.MakeUint(x), nil
	case uint8:
		return starlark.MakeUint64(uint64(x)), nil
	case uint16:
		return starlark.MakeUint64(uint64(x)), nil
	case uint32:
		return starlark.MakeUint64(uint64(x)), nil
	case uint64:
		return starlark.MakeUint64(x), nil
	case float32:
		return starlark.Float(x), nil
	case float64:
		return starlark.Float(x), nil
	case string:
		return starlark.String(x), nil
	case []byte:
		return starlark.Bytes(x), nil
	case []string:
		elems := make([]starlark.Value, len(x))
		for i, s := range x {
			elems[i] = starlark.String(s)
		}
		return starlark.NewList(elems), nil
	case []any:
		elems := make([]starlark.Value, len(x))
		for i, e := range x {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		dict := starlark.NewDict(len(x))
		for k, e := range x {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, zerr.Wrap(err, domain.ErrUnsupportedValue.Error())
			}
		}
		return dict, nil
	case *Function:
		return x.fn, nil
	default:
		return nil, zerr.With(domain.ErrUnsupportedValue, "type", fmt.Sprintf("%T", v))
	}
}

// fromStarlark converts a Starlark value to plain Go data.
// Integers become int64 when they fit and *big.Int otherwise.
func fromStarlark(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i, nil
		}
		return x.BigInt(), nil
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return string(x), nil
	case starlark.Bytes:
		return []byte(x), nil
	case *starlark.List:
		return fromIterable(x, x.Len())
	case starlark.Tuple:
		return fromIterable(x, x.Len())
	case *starlark.Set:
		return fromIterable(x, x.Len())
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			val, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case *starlarkstruct.Struct:
		return fromAttrs(x, x.AttrNames())
	case *starlarkstruct.Module:
		return fromAttrs(x, x.AttrNames())
	case *starlark.Function:
		return nil, zerr.With(domain.ErrUnsupportedValue, "type", x.Type())
	default:
		return nil, zerr.With(domain.ErrUnsupportedValue, "type", v.Type())
	}
}

func fromIterable(x starlark.Iterable, n int) ([]any, error) {
	out := make([]any, 0, n)
	it := x.Iterate()
	defer it.Done()

	var elem starlark.Value
	for it.Next(&elem) {
		val, err := fromStarlark(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func fromAttrs(x starlark.HasAttrs, names []string) (map[string]any, error) {
	out := make(map[string]any, len(names))
	for _, name := range names {
		attr, err := x.Attr(name)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrUnsupportedValue.Error())
		}
		val, err := fromStarlark(attr)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}
