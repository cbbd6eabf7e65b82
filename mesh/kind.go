package mesh

import (
	"fmt"
	"strings"
)

// Kind is the boundary condition type of a marker
type Kind uint8

const (
	EulerWall Kind = iota
	HeatFluxWall
	IsothermalWall
	CHTWall
	Symmetry
	FarField
	NearField
	Inlet
	Outlet
	ActuatorDiskInlet
	ActuatorDiskOutlet
	EngineInflow
	EngineExhaust
	numKinds
)

var kindNames = [numKinds]string{
	"euler_wall", "heatflux_wall", "isothermal_wall", "cht_wall", "symmetry", "farfield",
	"nearfield", "inlet", "outlet", "actdisk_inlet", "actdisk_outlet", "engine_inflow",
	"engine_exhaust",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a boundary condition name to its Kind
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k := Kind(0); k < numKinds; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown boundary kind %q", name)
}

// IsViscousWall is true for walls that carry shear stress and heat flux
func (k Kind) IsViscousWall() bool {
	return k == HeatFluxWall || k == IsothermalWall || k == CHTWall
}

// IsThroughFlow is true for boundaries with mass flux across them
func (k Kind) IsThroughFlow() bool {
	switch k {
	case Inlet, Outlet, ActuatorDiskInlet, ActuatorDiskOutlet, EngineInflow, EngineExhaust:
		return true
	}
	return false
}

// IsPressureBoundary is true for the boundaries integrated by the pressure pass
func (k Kind) IsPressureBoundary() bool {
	return k == EulerWall || k == NearField || k.IsViscousWall() || k.IsThroughFlow()
}
