package transform

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Geometry transforms every coordinate of an orb geometry with a 2D
// transform. Each coordinate sequence is mapped in one bulk call. A bound
// is transformed through its corners and returned as the bound of the
// result.
func Geometry(t MathTransform, g orb.Geometry) (orb.Geometry, error) {
	if t.SourceDimensions() != 2 || t.TargetDimensions() != 2 {
		return nil, mismatched(t.String(), t.SourceDimensions(), 2)
	}
	if g == nil {
		return nil, nil
	}

	switch v := g.(type) {
	case orb.Point:
		out, err := points(t, []orb.Point{v})
		if err != nil {
			return nil, err
		}
		return out[0], nil
	case orb.MultiPoint:
		out, err := points(t, v)
		return orb.MultiPoint(out), err
	case orb.LineString:
		out, err := points(t, v)
		return orb.LineString(out), err
	case orb.Ring:
		out, err := points(t, v)
		return orb.Ring(out), err
	case orb.MultiLineString:
		result := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			out, err := points(t, ls)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i, err)
			}
			result[i] = out
		}
		return result, nil
	case orb.Polygon:
		return polygon(t, v)
	case orb.MultiPolygon:
		result := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			out, err := polygon(t, p)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			result[i] = out
		}
		return result, nil
	case orb.Collection:
		result := make(orb.Collection, len(v))
		for i, member := range v {
			out, err := Geometry(t, member)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			result[i] = out
		}
		return result, nil
	case orb.Bound:
		out, err := points(t, v.ToRing())
		if err != nil {
			return nil, err
		}
		return orb.Ring(out).Bound(), nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
}

func polygon(t MathTransform, p orb.Polygon) (orb.Polygon, error) {
	result := make(orb.Polygon, len(p))
	for i, r := range p {
		out, err := points(t, r)
		if err != nil {
			return nil, fmt.Errorf("ring %d: %w", i, err)
		}
		result[i] = out
	}
	return result, nil
}

func points(t MathTransform, pts []orb.Point) ([]orb.Point, error) {
	xy := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		xy = append(xy, p[0], p[1])
	}
	out, err := t.TransformPoints(xy)
	if err != nil {
		return nil, err
	}
	result := make([]orb.Point, len(pts))
	for i := range result {
		result[i] = orb.Point{out[2*i], out[2*i+1]}
	}
	return result, nil
}
