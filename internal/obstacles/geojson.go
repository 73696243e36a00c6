package obstacles

import (
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rrt-planner/internal/geometry"
)

// Load reads obstacles from a GeoJSON file, or from every *.geojson file when
// path is a directory. Unreadable files in a directory are skipped with a warning.
func Load(path string, logger *zap.SugaredLogger) ([]geometry.Box, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat obstacle source")
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read file")
		}
		return Decode(data, logger)
	}

	files, err := filepath.Glob(filepath.Join(path, "*.geojson"))
	if err != nil {
		return nil, err
	}
	logger.Infof("Loading obstacles from %d GeoJSON files...", len(files))

	var all []geometry.Box
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warnf("⚠️  Failed to read %s: %v", file, err)
			continue
		}
		boxes, err := Decode(data, logger)
		if err != nil {
			logger.Warnf("⚠️  Failed to parse %s: %v", file, err)
			continue
		}
		logger.Infof("   ✅ Loaded %d obstacles from %s", len(boxes), filepath.Base(file))
		all = append(all, boxes...)
	}
	logger.Infof("Total obstacles loaded: %d", len(all))
	return all, nil
}

// Decode turns every Polygon and MultiPolygon feature into its 2-D bounding
// box. Other geometries and flat polygons are ignored.
func Decode(data []byte, logger *zap.SugaredLogger) ([]geometry.Box, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal feature collection")
	}

	var boxes []geometry.Box
	for i, feature := range fc.Features {
		var polygons []orb.Polygon
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		default:
			logger.Debugf("skipping feature %d with geometry %T", i, feature.Geometry)
			continue
		}

		for _, poly := range polygons {
			b := poly.Bound()
			if b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] {
				logger.Debugf("skipping flat polygon in feature %d", i)
				continue
			}
			boxes = append(boxes, fromBound(b))
		}
	}
	return boxes, nil
}

func fromBound(b orb.Bound) geometry.Box {
	return geometry.Box{
		Min: geometry.Point{b.Min[0], b.Min[1]},
		Max: geometry.Point{b.Max[0], b.Max[1]},
	}
}

// ToBound converts the first two axes of a box to an orb bound.
func ToBound(b geometry.Box) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Min[0], b.Min[1]},
		Max: orb.Point{b.Max[0], b.Max[1]},
	}
}

// Encode writes boxes as a FeatureCollection of rectangles, the inverse of Decode.
func Encode(boxes []geometry.Box) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i, b := range boxes {
		f := geojson.NewFeature(ToBound(b).ToPolygon())
		f.Properties["index"] = i
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
