package starfield

import "math"

// CameraAngles holds the camera orientation in radians, already converted
// to the sign convention the ray rotation expects (see DeriveFrameUniforms:
// bearing and roll are negated relative to the host's map state).
type CameraAngles struct {
	Pitch, Bearing, Roll float64
}

// GlobeCenter is the globe's center coordinate in radians.
type GlobeCenter struct {
	Lng, Lat float64
}

// RayToSpherical converts a world-space view ray into the spherical
// longitude/latitude the star grid is addressed by. The ray is normalized,
// rotated through the camera orientation (X by pitch, Y by bearing, Z by
// roll), then through the globe center orientation (X by latitude, Y by
// longitude), and finally read off the unit sphere.
//
// With all angles zero the mapping is the plain spherical parameterization
// lng = atan2(x, z), lat = asin(y).
func RayToSpherical(ray Vec3, cam CameraAngles, center GlobeCenter) (lng, lat float64) {
	r := ray.Normalize()
	r = r.RotateX(cam.Pitch)
	r = r.RotateY(cam.Bearing)
	r = r.RotateZ(cam.Roll)
	r = r.RotateX(center.Lat)
	r = r.RotateY(center.Lng)
	lng = math.Atan2(r.X, r.Z)
	lat = math.Asin(clamp(r.Y, -1, 1))
	return lng, lat
}
