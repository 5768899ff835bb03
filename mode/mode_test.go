package mode

import (
	"testing"
	"unsafe"

	drm "github.com/NeowayLabs/drmhwc"
)

// Sizes of the uapi structs on 64 bit kernels.
func TestStructSizes(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("sizes below are for 64 bit targets")
	}
	for _, tc := range []struct {
		name     string
		got, exp uintptr
	}{
		{"drm_mode_card_res", unsafe.Sizeof(sysResources{}), 64},
		{"drm_mode_get_plane_res", unsafe.Sizeof(sysPlaneRes{}), 16},
		{"drm_mode_get_plane", unsafe.Sizeof(sysGetPlane{}), 32},
		{"drm_mode_obj_get_properties", unsafe.Sizeof(sysObjProperties{}), 32},
		{"drm_mode_get_property", unsafe.Sizeof(sysGetProperty{}), 64},
		{"drm_mode_property_enum", unsafe.Sizeof(sysPropertyEnum{}), 40},
		{"drm_mode_fb_cmd2", unsafe.Sizeof(sysFBCmd2{}), 104},
		{"drm_mode_create_dumb", unsafe.Sizeof(sysCreateDumb{}), 32},
		{"drm_mode_map_dumb", unsafe.Sizeof(sysMapDumb{}), 16},
	} {
		if tc.got != tc.exp {
			t.Errorf("%s: size %d, expected %d", tc.name, tc.got, tc.exp)
		}
	}
}

func TestCString(t *testing.T) {
	var name [PropNameLen]uint8
	copy(name[:], "type")
	if got := cstring(name[:]); got != "type" {
		t.Errorf("got %q", got)
	}
	full := []uint8("0123456789")
	if got := cstring(full); got != "0123456789" {
		t.Errorf("got %q", got)
	}
}

func TestPlanes(t *testing.T) {
	file, err := drm.OpenCard(0)
	if err != nil {
		t.Skipf("no graphics card: %v", err)
	}
	defer file.Close()

	if err := drm.SetClientCap(file, drm.ClientCapUniversalPlanes, 1); err != nil {
		t.Skipf("universal planes: %v", err)
	}
	ids, err := GetPlaneResources(file)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		plane, err := GetPlane(file, id)
		if err != nil {
			t.Error(err)
			continue
		}
		if len(plane.Formats) == 0 {
			t.Errorf("plane %d advertises no formats", id)
		}

		props, _, err := GetProperties(file, id, ObjectPlane)
		if err != nil {
			t.Error(err)
			continue
		}
		found := false
		for _, pid := range props {
			prop, err := GetProperty(file, pid)
			if err != nil {
				t.Error(err)
				continue
			}
			if prop.Name == "type" {
				found = true
				if len(prop.Enums) == 0 {
					t.Errorf("plane %d: type property without enums", id)
				}
			}
		}
		if !found {
			t.Errorf("plane %d has no type property", id)
		}
		t.Logf("plane %d: crtcs=%#x formats=%d", id, plane.PossibleCrtcs, len(plane.Formats))
	}
}

func TestAddFB2Dumb(t *testing.T) {
	file, err := drm.OpenCard(0)
	if err != nil {
		t.Skipf("no graphics card: %v", err)
	}
	defer file.Close()
	if !drm.HasDumbBuffer(file) {
		t.Skip("no dumb buffers")
	}

	fb, err := CreateDumb(file, 128, 64, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer DestroyDumb(file, fb.Handle)

	req := &FB2{Width: 128, Height: 64, Format: 0x34325258} // XR24
	req.Handles[0] = fb.Handle
	req.Pitches[0] = fb.Pitch
	id, err := AddFB2(file, req)
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Errorf("AddFB2 returned fb id 0")
	}
	if err := RmFB(file, id); err != nil {
		t.Error(err)
	}
}
