// Package mode wraps the KMS (kernel mode setting) ioctls needed to
// describe planes and to register framebuffers for scanout.
package mode

import (
	"bytes"
	"os"
	"unsafe"

	drm "github.com/NeowayLabs/drmhwc"
	"github.com/NeowayLabs/drmhwc/ioctl"
)

const (
	PropNameLen = 32

	// Object types for GetProperties.
	ObjectCrtc      = 0xcccccccc
	ObjectConnector = 0xc0c0c0c0
	ObjectPlane     = 0xeeeeeeee

	// FB2 flags.
	FBInterlaced = 1 << 0
	FBModifiers  = 1 << 1

	// Property flags.
	PropRange   = 1 << 1
	PropEnum    = 1 << 3
	PropBlob    = 1 << 4
	PropBitmask = 1 << 5
)

type (
	sysResources struct {
		fbIdPtr              uint64
		crtcIdPtr            uint64
		connectorIdPtr       uint64
		encoderIdPtr         uint64
		CountFbs             uint32
		CountCrtcs           uint32
		CountConnectors      uint32
		CountEncoders        uint32
		MinWidth, MaxWidth   uint32
		MinHeight, MaxHeight uint32
	}

	Resources struct {
		sysResources

		Fbs        []uint32
		Crtcs      []uint32
		Connectors []uint32
		Encoders   []uint32
	}

	sysPlaneRes struct {
		planeIdPtr  uint64
		countPlanes uint32
	}

	sysGetPlane struct {
		id            uint32
		crtcID        uint32
		fbID          uint32
		possibleCrtcs uint32
		gammaSize     uint32

		countFormatTypes uint32
		formatTypePtr    uint64
	}

	// Plane is a hardware scanout stage as reported by the kernel.
	Plane struct {
		ID            uint32
		CrtcID        uint32 // CRTC currently bound, 0 if none
		BufferID      uint32 // FB currently scanned out, 0 if none
		PossibleCrtcs uint32 // bitmask of CRTC indexes
		GammaSize     uint32
		Formats       []uint32
	}

	sysObjProperties struct {
		propsPtr      uint64
		propValuesPtr uint64
		countProps    uint32
		objID         uint32
		objType       uint32
	}

	sysGetProperty struct {
		valuesPtr     uint64
		enumBlobPtr   uint64
		id            uint32
		flags         uint32
		name          [PropNameLen]uint8
		countValues   uint32
		countEnumBlob uint32
	}

	sysPropertyEnum struct {
		value uint64
		name  [PropNameLen]uint8
	}

	PropertyEnum struct {
		Value uint64
		Name  string
	}

	Property struct {
		ID     uint32
		Flags  uint32
		Name   string
		Values []uint64
		Enums  []PropertyEnum
	}

	sysFBCmd2 struct {
		fbID          uint32
		width, height uint32
		pixelFormat   uint32
		flags         uint32

		handles   [4]uint32
		pitches   [4]uint32
		offsets   [4]uint32
		modifiers [4]uint64
	}

	// FB2 describes a multi-planar framebuffer for AddFB2.
	FB2 struct {
		Width, Height uint32
		Format        uint32 // fourcc
		Flags         uint32

		Handles   [4]uint32
		Pitches   [4]uint32
		Offsets   [4]uint32
		Modifiers [4]uint64
	}

	sysRmFB struct {
		handle uint32
	}

	sysCreateDumb struct {
		height, width uint32
		bpp           uint32
		flags         uint32

		// returned values
		handle uint32
		pitch  uint32
		size   uint64
	}

	sysMapDumb struct {
		handle uint32 // Handle for the object being mapped
		pad    uint32

		// Fake offset to use for subsequent mmap call
		// This is a fixed-size type for 32/64 compatibility.
		offset uint64
	}

	sysDestroyDumb struct {
		handle uint32
	}

	// FB is a dumb buffer.
	FB struct {
		Height, Width, BPP, Flags uint32
		Handle                    uint32
		Pitch                     uint32
		Size                      uint64
	}
)

var (
	// DRM_IOWR(0xA0, struct drm_mode_card_res)
	IOCTLModeResources = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysResources{})), drm.IOCTLBase, 0xA0)

	// DRM_IOWR(0xAA, struct drm_mode_get_property)
	IOCTLModeGetProperty = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetProperty{})), drm.IOCTLBase, 0xAA)

	// DRM_IOWR(0xAF, unsigned int)
	IOCTLModeRmFB = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(uint32(0))), drm.IOCTLBase, 0xAF)

	// DRM_IOWR(0xB2, struct drm_mode_create_dumb)
	IOCTLModeCreateDumb = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCreateDumb{})), drm.IOCTLBase, 0xB2)

	// DRM_IOWR(0xB3, struct drm_mode_map_dumb)
	IOCTLModeMapDumb = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysMapDumb{})), drm.IOCTLBase, 0xB3)

	// DRM_IOWR(0xB4, struct drm_mode_destroy_dumb)
	IOCTLModeDestroyDumb = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysDestroyDumb{})), drm.IOCTLBase, 0xB4)

	// DRM_IOWR(0xB5, struct drm_mode_get_plane_res)
	IOCTLModeGetPlaneResources = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysPlaneRes{})), drm.IOCTLBase, 0xB5)

	// DRM_IOWR(0xB6, struct drm_mode_get_plane)
	IOCTLModeGetPlane = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetPlane{})), drm.IOCTLBase, 0xB6)

	// DRM_IOWR(0xB8, struct drm_mode_fb_cmd2)
	IOCTLModeAddFB2 = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysFBCmd2{})), drm.IOCTLBase, 0xB8)

	// DRM_IOWR(0xB9, struct drm_mode_obj_get_properties)
	IOCTLModeObjGetProperties = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysObjProperties{})), drm.IOCTLBase, 0xB9)
)

func GetResources(file *os.File) (*Resources, error) {
	mres := &sysResources{}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeResources),
		uintptr(unsafe.Pointer(mres)))
	if err != nil {
		return nil, err
	}

	var (
		fbids, crtcids, connectorids, encoderids []uint32
	)

	if mres.CountFbs > 0 {
		fbids = make([]uint32, mres.CountFbs)
		mres.fbIdPtr = uint64(uintptr(unsafe.Pointer(&fbids[0])))
	}
	if mres.CountCrtcs > 0 {
		crtcids = make([]uint32, mres.CountCrtcs)
		mres.crtcIdPtr = uint64(uintptr(unsafe.Pointer(&crtcids[0])))
	}
	if mres.CountEncoders > 0 {
		encoderids = make([]uint32, mres.CountEncoders)
		mres.encoderIdPtr = uint64(uintptr(unsafe.Pointer(&encoderids[0])))
	}
	if mres.CountConnectors > 0 {
		connectorids = make([]uint32, mres.CountConnectors)
		mres.connectorIdPtr = uint64(uintptr(unsafe.Pointer(&connectorids[0])))
	}

	err = ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeResources),
		uintptr(unsafe.Pointer(mres)))
	if err != nil {
		return nil, err
	}

	// TODO(i4k): handle hotplugging in-between the ioctls above

	return &Resources{
		sysResources: *mres,
		Fbs:          fbids[:min(len(fbids), int(mres.CountFbs))],
		Crtcs:        crtcids[:min(len(crtcids), int(mres.CountCrtcs))],
		Encoders:     encoderids[:min(len(encoderids), int(mres.CountEncoders))],
		Connectors:   connectorids[:min(len(connectorids), int(mres.CountConnectors))],
	}, nil
}

// GetPlaneResources lists the plane ids of the device. Primary and
// cursor planes are only listed once drm.ClientCapUniversalPlanes is
// enabled on file.
func GetPlaneResources(file *os.File) ([]uint32, error) {
	res := &sysPlaneRes{}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeGetPlaneResources),
		uintptr(unsafe.Pointer(res)))
	if err != nil {
		return nil, err
	}
	if res.countPlanes == 0 {
		return nil, nil
	}

	ids := make([]uint32, res.countPlanes)
	res.planeIdPtr = uint64(uintptr(unsafe.Pointer(&ids[0])))
	err = ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeGetPlaneResources),
		uintptr(unsafe.Pointer(res)))
	if err != nil {
		return nil, err
	}
	return ids[:min(len(ids), int(res.countPlanes))], nil
}

func GetPlane(file *os.File, id uint32) (*Plane, error) {
	p := &sysGetPlane{id: id}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeGetPlane),
		uintptr(unsafe.Pointer(p)))
	if err != nil {
		return nil, err
	}

	var formats []uint32
	if p.countFormatTypes > 0 {
		formats = make([]uint32, p.countFormatTypes)
		p.formatTypePtr = uint64(uintptr(unsafe.Pointer(&formats[0])))
		err = ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeGetPlane),
			uintptr(unsafe.Pointer(p)))
		if err != nil {
			return nil, err
		}
		formats = formats[:min(len(formats), int(p.countFormatTypes))]
	}

	return &Plane{
		ID:            p.id,
		CrtcID:        p.crtcID,
		BufferID:      p.fbID,
		PossibleCrtcs: p.possibleCrtcs,
		GammaSize:     p.gammaSize,
		Formats:       formats,
	}, nil
}

// GetProperties returns the property ids of a KMS object and their
// current values, index aligned.
func GetProperties(file *os.File, objID, objType uint32) ([]uint32, []uint64, error) {
	req := &sysObjProperties{objID: objID, objType: objType}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeObjGetProperties),
		uintptr(unsafe.Pointer(req)))
	if err != nil {
		return nil, nil, err
	}
	if req.countProps == 0 {
		return nil, nil, nil
	}

	props := make([]uint32, req.countProps)
	values := make([]uint64, req.countProps)
	req.propsPtr = uint64(uintptr(unsafe.Pointer(&props[0])))
	req.propValuesPtr = uint64(uintptr(unsafe.Pointer(&values[0])))
	err = ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeObjGetProperties),
		uintptr(unsafe.Pointer(req)))
	if err != nil {
		return nil, nil, err
	}
	n := min(len(props), int(req.countProps))
	return props[:n], values[:n], nil
}

func GetProperty(file *os.File, id uint32) (*Property, error) {
	prop := &sysGetProperty{id: id}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeGetProperty),
		uintptr(unsafe.Pointer(prop)))
	if err != nil {
		return nil, err
	}

	var (
		values []uint64
		enums  []sysPropertyEnum
	)
	if prop.countValues > 0 {
		values = make([]uint64, prop.countValues)
		prop.valuesPtr = uint64(uintptr(unsafe.Pointer(&values[0])))
	}
	// blob properties report blob ids here, only enums carry names
	if prop.countEnumBlob > 0 && prop.flags&(PropEnum|PropBitmask) != 0 {
		enums = make([]sysPropertyEnum, prop.countEnumBlob)
		prop.enumBlobPtr = uint64(uintptr(unsafe.Pointer(&enums[0])))
	} else {
		prop.countEnumBlob = 0
	}

	err = ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeGetProperty),
		uintptr(unsafe.Pointer(prop)))
	if err != nil {
		return nil, err
	}

	ret := &Property{
		ID:     prop.id,
		Flags:  prop.flags,
		Name:   cstring(prop.name[:]),
		Values: values[:min(len(values), int(prop.countValues))],
	}
	for _, e := range enums[:min(len(enums), int(prop.countEnumBlob))] {
		ret.Enums = append(ret.Enums, PropertyEnum{
			Value: e.value,
			Name:  cstring(e.name[:]),
		})
	}
	return ret, nil
}

// AddFB2 registers a framebuffer over up to four planes of GEM memory
// and returns its id.
func AddFB2(file *os.File, fb *FB2) (uint32, error) {
	f := &sysFBCmd2{
		width:       fb.Width,
		height:      fb.Height,
		pixelFormat: fb.Format,
		flags:       fb.Flags,
		handles:     fb.Handles,
		pitches:     fb.Pitches,
		offsets:     fb.Offsets,
		modifiers:   fb.Modifiers,
	}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeAddFB2),
		uintptr(unsafe.Pointer(f)))
	if err != nil {
		return 0, err
	}
	return f.fbID, nil
}

func RmFB(file *os.File, bufferid uint32) error {
	return ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeRmFB),
		uintptr(unsafe.Pointer(&sysRmFB{bufferid})))
}

// CreateDumb allocates a dumb buffer. Only used to produce test
// buffers; real layers come from the platform allocator.
func CreateDumb(file *os.File, width, height uint16, bpp uint32) (*FB, error) {
	fb := &sysCreateDumb{}
	fb.width = uint32(width)
	fb.height = uint32(height)
	fb.bpp = bpp
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeCreateDumb),
		uintptr(unsafe.Pointer(fb)))
	if err != nil {
		return nil, err
	}
	return &FB{
		Height: fb.height,
		Width:  fb.width,
		BPP:    fb.bpp,
		Handle: fb.handle,
		Pitch:  fb.pitch,
		Size:   fb.size,
	}, nil
}

func MapDumb(file *os.File, boHandle uint32) (uint64, error) {
	mreq := &sysMapDumb{}
	mreq.handle = boHandle
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeMapDumb),
		uintptr(unsafe.Pointer(mreq)))
	if err != nil {
		return 0, err
	}
	return mreq.offset, nil
}

func DestroyDumb(file *os.File, handle uint32) error {
	return ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLModeDestroyDumb),
		uintptr(unsafe.Pointer(&sysDestroyDumb{handle})))
}

func cstring(b []uint8) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
