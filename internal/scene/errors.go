package scene

import "codeberg.org/mutker/framescore/internal/errors"

const (
	ErrUnknownPreset = errors.ErrorCode("scene_unknown_preset")
	ErrReadScene     = errors.ErrorCode("scene_read_failed")
	ErrParseScene    = errors.ErrorCode("scene_parse_failed")
	ErrInvalidScene  = errors.ErrorCode("scene_invalid")
	ErrUnknownMesh   = errors.ErrorCode("scene_unknown_mesh")
)
