package engine

import (
	"fmt"

	"indicatorEngine/internal/indicators"
	"indicatorEngine/internal/ports"
)

type computeFunc func(p *pass, params indicators.Params) (*indicators.Frame, error)

// dispatch has one entry per indicator family.
var dispatch = [indicators.NumKinds]computeFunc{
	indicators.KindSMA: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		w, err := paramsAs[indicators.WindowParams](indicators.KindSMA, params)
		if err != nil {
			return nil, err
		}
		return indicators.SMA(p.series, w.Window)
	},
	indicators.KindEMA: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		w, err := paramsAs[indicators.WindowParams](indicators.KindEMA, params)
		if err != nil {
			return nil, err
		}
		return indicators.EMA(p.series, w.Window)
	},
	indicators.KindIchimoku: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		ip, err := paramsAs[indicators.IchimokuParams](indicators.KindIchimoku, params)
		if err != nil {
			return nil, err
		}
		return indicators.Ichimoku(p.series, ip.Conversion, ip.Base, ip.SpanB)
	},
	indicators.KindADX: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		w, err := paramsAs[indicators.WindowParams](indicators.KindADX, params)
		if err != nil {
			return nil, err
		}
		dmi, err := p.dmi(w.Window)
		if err != nil {
			return nil, fmt.Errorf("dmi dependency: %w", err)
		}
		return indicators.ADX(p.series, w.Window, dmi)
	},
	indicators.KindDMI: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		w, err := paramsAs[indicators.WindowParams](indicators.KindDMI, params)
		if err != nil {
			return nil, err
		}
		return p.dmi(w.Window)
	},
	indicators.KindRSI: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		w, err := paramsAs[indicators.WindowParams](indicators.KindRSI, params)
		if err != nil {
			return nil, err
		}
		return indicators.RSI(p.series, w.Window)
	},
	indicators.KindMACD: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		mp, err := paramsAs[indicators.MACDParams](indicators.KindMACD, params)
		if err != nil {
			return nil, err
		}
		return indicators.MACD(p.series, mp.Fast, mp.Slow, mp.Signal)
	},
	indicators.KindStochastic: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		sp, err := paramsAs[indicators.StochasticParams](indicators.KindStochastic, params)
		if err != nil {
			return nil, err
		}
		return indicators.Stochastic(p.series, sp.K, sp.D, sp.SmoothK)
	},
	indicators.KindATR: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		w, err := paramsAs[indicators.WindowParams](indicators.KindATR, params)
		if err != nil {
			return nil, err
		}
		return p.atr(w.Window)
	},
	indicators.KindBBands: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		bp, err := paramsAs[indicators.BandParams](indicators.KindBBands, params)
		if err != nil {
			return nil, err
		}
		return indicators.BollingerBands(p.series, bp.Length, bp.Mult)
	},
	indicators.KindKeltner: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		bp, err := paramsAs[indicators.BandParams](indicators.KindKeltner, params)
		if err != nil {
			return nil, err
		}
		atr, err := p.atr(bp.Length)
		if err != nil {
			return nil, fmt.Errorf("atr dependency: %w", err)
		}
		return indicators.Keltner(p.series, bp.Length, bp.Mult, atr.Column("atr"))
	},
	indicators.KindOBV: func(p *pass, _ indicators.Params) (*indicators.Frame, error) {
		return indicators.OBV(p.series)
	},
	indicators.KindMFI: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		w, err := paramsAs[indicators.WindowParams](indicators.KindMFI, params)
		if err != nil {
			return nil, err
		}
		return indicators.MFI(p.series, w.Window)
	},
	indicators.KindVWAP: func(p *pass, _ indicators.Params) (*indicators.Frame, error) {
		return indicators.VWAP(p.series)
	},
	indicators.KindVolumeProfile: func(p *pass, params indicators.Params) (*indicators.Frame, error) {
		bp, err := paramsAs[indicators.BinsParams](indicators.KindVolumeProfile, params)
		if err != nil {
			return nil, err
		}
		return indicators.VolumeProfile(p.series, bp.Bins)
	},
}

func paramsAs[T indicators.Params](k indicators.Kind, params indicators.Params) (T, error) {
	v, ok := params.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s cannot take parameters %T", ports.ErrInvalidParameter, k, params)
	}
	return v, nil
}
