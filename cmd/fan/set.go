package fan

import (
	"fmt"

	"github.com/fanctld/fanctld/internal/fans"
	"github.com/spf13/cobra"
)

var setPwm int

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the speed of a fan to the given PWM value ([0..255])",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if setPwm < fans.MinPwmValue || setPwm > fans.MaxPwmValue {
			return fmt.Errorf("pwm value out of range: %d, must be in [0..255]", setPwm)
		}

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}
		if !fan.Supports(fans.FeaturePwmControl) {
			return fmt.Errorf("fan %s is not controllable", fan.GetId())
		}

		if err := fan.TakeControl(); err != nil {
			return err
		}

		return fan.SetPwm(setPwm)
	},
}

func init() {
	setCmd.Flags().IntVarP(&setPwm, "pwm", "p", 0, "PWM value to apply ([0..255])")
	_ = setCmd.MarkFlagRequired("pwm")
	Command.AddCommand(setCmd)
}
