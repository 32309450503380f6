// Package geo は地理座標に関する計算を提供する。
package geo

import "math"

// EarthRadiusKm は球面近似に用いる地球半径（km）。
const EarthRadiusKm = 6371.0

// Point は緯度・経度（度）で表される地点。
type Point struct {
	Lat float64
	Lon float64
}

// HaversineKm は2地点間の大円距離をkmで返す。
// 対称であり、同一地点では0を返す。
// 丸め誤差でaが[0,1]を外れてもNaNにならないようクランプする。
func HaversineKm(a, b Point) float64 {
	phi1 := degToRad(a.Lat)
	phi2 := degToRad(b.Lat)
	dPhi := degToRad(b.Lat - a.Lat)
	dLambda := degToRad(b.Lon - a.Lon)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	h = math.Min(math.Max(h, 0), 1)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
