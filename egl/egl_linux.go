//go:build egl && linux

package egl

/*
#cgo LDFLAGS: -lEGL
#include <EGL/egl.h>
#include <EGL/eglext.h>

static EGLImageKHR create_image(EGLDisplay dpy, EGLenum target, const EGLint *attrs) {
	PFNEGLCREATEIMAGEKHRPROC create =
		(PFNEGLCREATEIMAGEKHRPROC)eglGetProcAddress("eglCreateImageKHR");
	if (!create)
		return EGL_NO_IMAGE_KHR;
	return create(dpy, EGL_NO_CONTEXT, target, (EGLClientBuffer)NULL, attrs);
}

static EGLBoolean destroy_image(EGLDisplay dpy, EGLImageKHR img) {
	PFNEGLDESTROYIMAGEKHRPROC destroy =
		(PFNEGLDESTROYIMAGEKHRPROC)eglGetProcAddress("eglDestroyImageKHR");
	if (!destroy)
		return EGL_FALSE;
	return destroy(dpy, img);
}
*/
import "C"

import "unsafe"

// NativeDisplay is an initialized EGLDisplay owned by the caller.
type NativeDisplay struct {
	dpy C.EGLDisplay
}

// WrapDisplay wraps an EGLDisplay obtained from eglGetDisplay or
// eglGetPlatformDisplay. The display must already be initialized.
func WrapDisplay(dpy unsafe.Pointer) *NativeDisplay {
	return &NativeDisplay{dpy: C.EGLDisplay(dpy)}
}

func (d *NativeDisplay) CreateImage(target uint32, attribs []int32) (Image, error) {
	if len(attribs) == 0 || attribs[len(attribs)-1] != None {
		return NoImage, &Error{Op: "eglCreateImageKHR", Code: BadParameter}
	}
	img := C.create_image(d.dpy, C.EGLenum(target),
		(*C.EGLint)(unsafe.Pointer(&attribs[0])))
	if img == nil {
		return NoImage, &Error{Op: "eglCreateImageKHR", Code: int32(C.eglGetError())}
	}
	return Image(uintptr(unsafe.Pointer(img))), nil
}

func (d *NativeDisplay) DestroyImage(img Image) error {
	if C.destroy_image(d.dpy, C.EGLImageKHR(unsafe.Pointer(uintptr(img)))) == C.EGL_FALSE {
		return &Error{Op: "eglDestroyImageKHR", Code: int32(C.eglGetError())}
	}
	return nil
}
