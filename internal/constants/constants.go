package constants

const KBolzmann float64 = 1.380649e-23
const ElectronCharge = 1.602176634e-19                   // C
const ElectornMass float64 = 9.1093837139e-31            // [kg]
const FreeSpacePermittivityE0 float64 = 8.8541878188e-12 // [m^-3 kg^{-1} s^4 A^2]
const SpeedOfLight float64 = 2.99792458e8                // [m / s]
const Planck float64 = 6.62607015e-34                    // [J s]
const Quantile95 = 1.96

const ElectronRestEnergy float64 = 510998.95069 // [eV]
const Rydberg float64 = 13.605693122990         // [eV]
const Hartree float64 = 2. * Rydberg            // [eV]
const BohrRadius float64 = 5.29177210544e-11    // [m]

const AtomicUnitTime float64 = 2.4188843265864e-17       // [s]
const AtomicUnitElectricField float64 = 5.14220675112e11 // [V / m]
const CoulombEnergyLength float64 = 1.43996448e-9        // e^2 / (4 pi e0) [eV m]
const LotzConstant float64 = 4.5e-18                     // [m^2 eV^2]
