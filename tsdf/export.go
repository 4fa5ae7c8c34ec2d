package tsdf

import (
	"context"

	"go.volu.dev/fusion/mesh"
	"go.volu.dev/fusion/pointcloud"
)

// ToPointCloud runs ExtractSurfacePoints with the default weight
// threshold and wraps the result in the reusable pointcloud.PointCloud
// interface, mirroring the teacher's PinholeCameraIntrinsics.
// RGBDToPointCloud convenience wrapper over the raw projection kernel.
func (v *Volume) ToPointCloud(ctx context.Context) (pointcloud.PointCloud, error) {
	return v.ExtractSurfacePoints(ctx, PointsConfig{MinWeight: 1})
}

// ToMesh runs ExtractSurfaceMesh with the default weight threshold and
// returns the resulting triangle mesh.
func (v *Volume) ToMesh(ctx context.Context) (*mesh.Mesh, error) {
	return v.ExtractSurfaceMesh(ctx, MeshConfig{MinWeight: 1})
}
