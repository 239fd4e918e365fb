// Package mock_disk is a hand-maintained gomock double for disk.Gateway,
// written in the style of the teacher's src/repositories/mock_repositories
// package (mockgen is not run in this exercise).
package mock_disk

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/apolo-sh/platform-disk-api/internal/disk"
)

type MockGateway struct {
	ctrl     *gomock.Controller
	recorder *MockGatewayRecorder
}

type MockGatewayRecorder struct {
	mock *MockGateway
}

func NewMockGateway(ctrl *gomock.Controller) *MockGateway {
	m := &MockGateway{ctrl: ctrl}
	m.recorder = &MockGatewayRecorder{m}
	return m
}

func (m *MockGateway) EXPECT() *MockGatewayRecorder { return m.recorder }

func (m *MockGateway) CreatePVC(ctx context.Context, pvc disk.PVCWrite) (disk.PVCRead, error) {
	ret := m.ctrl.Call(m, "CreatePVC", ctx, pvc)
	r0, _ := ret[0].(disk.PVCRead)
	r1, _ := ret[1].(error)
	return r0, r1
}

func (mr *MockGatewayRecorder) CreatePVC(ctx, pvc interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreatePVC", reflect.TypeOf((*MockGateway)(nil).CreatePVC), ctx, pvc)
}

func (m *MockGateway) GetPVC(ctx context.Context, namespace, name string) (disk.PVCRead, error) {
	ret := m.ctrl.Call(m, "GetPVC", ctx, namespace, name)
	r0, _ := ret[0].(disk.PVCRead)
	r1, _ := ret[1].(error)
	return r0, r1
}

func (mr *MockGatewayRecorder) GetPVC(ctx, namespace, name interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetPVC", reflect.TypeOf((*MockGateway)(nil).GetPVC), ctx, namespace, name)
}

func (m *MockGateway) ListPVCs(ctx context.Context, namespace string, labelSelector string) ([]disk.PVCRead, error) {
	ret := m.ctrl.Call(m, "ListPVCs", ctx, namespace, labelSelector)
	r0, _ := ret[0].([]disk.PVCRead)
	r1, _ := ret[1].(error)
	return r0, r1
}

func (mr *MockGatewayRecorder) ListPVCs(ctx, namespace, labelSelector interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListPVCs", reflect.TypeOf((*MockGateway)(nil).ListPVCs), ctx, namespace, labelSelector)
}

func (m *MockGateway) PatchPVCLabels(ctx context.Context, namespace, name string, labels map[string]string) error {
	ret := m.ctrl.Call(m, "PatchPVCLabels", ctx, namespace, name, labels)
	r0, _ := ret[0].(error)
	return r0
}

func (mr *MockGatewayRecorder) PatchPVCLabels(ctx, namespace, name, labels interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PatchPVCLabels", reflect.TypeOf((*MockGateway)(nil).PatchPVCLabels), ctx, namespace, name, labels)
}

func (m *MockGateway) PatchPVCAnnotations(ctx context.Context, namespace, name string, annotations map[string]string) error {
	ret := m.ctrl.Call(m, "PatchPVCAnnotations", ctx, namespace, name, annotations)
	r0, _ := ret[0].(error)
	return r0
}

func (mr *MockGatewayRecorder) PatchPVCAnnotations(ctx, namespace, name, annotations interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PatchPVCAnnotations", reflect.TypeOf((*MockGateway)(nil).PatchPVCAnnotations), ctx, namespace, name, annotations)
}

func (m *MockGateway) DeletePVC(ctx context.Context, namespace, name string) error {
	ret := m.ctrl.Call(m, "DeletePVC", ctx, namespace, name)
	r0, _ := ret[0].(error)
	return r0
}

func (mr *MockGatewayRecorder) DeletePVC(ctx, namespace, name interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeletePVC", reflect.TypeOf((*MockGateway)(nil).DeletePVC), ctx, namespace, name)
}

func (m *MockGateway) GetDiskNaming(ctx context.Context, namespace, name string) (disk.NamingRef, error) {
	ret := m.ctrl.Call(m, "GetDiskNaming", ctx, namespace, name)
	r0, _ := ret[0].(disk.NamingRef)
	r1, _ := ret[1].(error)
	return r0, r1
}

func (mr *MockGatewayRecorder) GetDiskNaming(ctx, namespace, name interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetDiskNaming", reflect.TypeOf((*MockGateway)(nil).GetDiskNaming), ctx, namespace, name)
}

func (m *MockGateway) CreateDiskNaming(ctx context.Context, ref disk.NamingRef) error {
	ret := m.ctrl.Call(m, "CreateDiskNaming", ctx, ref)
	r0, _ := ret[0].(error)
	return r0
}

func (mr *MockGatewayRecorder) CreateDiskNaming(ctx, ref interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateDiskNaming", reflect.TypeOf((*MockGateway)(nil).CreateDiskNaming), ctx, ref)
}

func (m *MockGateway) DeleteDiskNaming(ctx context.Context, namespace, name string) error {
	ret := m.ctrl.Call(m, "DeleteDiskNaming", ctx, namespace, name)
	r0, _ := ret[0].(error)
	return r0
}

func (mr *MockGatewayRecorder) DeleteDiskNaming(ctx, namespace, name interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteDiskNaming", reflect.TypeOf((*MockGateway)(nil).DeleteDiskNaming), ctx, namespace, name)
}
